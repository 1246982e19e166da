package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	xerrors "NewsAgent/internal/errors"
	"NewsAgent/internal/ports"
)

// Mode is the negotiated way a logical tool is called in a session.
type Mode int

const (
	ModeMissing Mode = iota
	ModeLegacy
	ModeStructured
)

func (m Mode) String() string {
	switch m {
	case ModeStructured:
		return "structured"
	case ModeLegacy:
		return "legacy"
	default:
		return "missing"
	}
}

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Session is a per-run view over a gateway. Tool capabilities are probed
// once when the session opens and cached for its lifetime.
type Session struct {
	gateway  ports.ToolGateway
	validate *validator.Validate
	logger   *slog.Logger

	mu    sync.Mutex
	modes map[string]Mode
}

// Open probes the gateway and negotiates a mode for every logical tool it
// exposes.
func Open(ctx context.Context, gateway ports.ToolGateway, logger *slog.Logger) (*Session, error) {
	if gateway == nil {
		return nil, xerrors.New(xerrors.CodeToolInvocation, "tool gateway is not configured", xerrors.WithRetryable(false))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("open tool session: %w", err)
	}

	names := gateway.Names()
	if len(names) == 0 {
		return nil, xerrors.New(xerrors.CodeToolInvocation, "tool gateway exposes no tools", xerrors.WithRetryable(false))
	}

	available := make(map[string]bool, len(names))
	for _, n := range names {
		available[n] = true
	}

	modes := map[string]Mode{}
	for _, n := range names {
		logical := strings.TrimSuffix(n, v2Suffix)
		switch {
		case available[logical+v2Suffix]:
			modes[logical] = ModeStructured
		case available[logical]:
			modes[logical] = ModeLegacy
		}
	}

	s := &Session{gateway: gateway, validate: NewValidator(), logger: logger, modes: modes}
	s.debug("tool session opened", "tools", len(modes))
	return s, nil
}

// Mode returns the negotiated mode for a logical tool.
func (s *Session) Mode(name string) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modes[name]
}

func (s *Session) downgrade(name string, reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modes[name] != ModeStructured {
		return
	}
	s.modes[name] = ModeLegacy
	s.warn("structured tool call failed, using legacy form for this session", "tool", name, "error", reason)
}

// Invoke calls a logical tool through its negotiated form. In the structured
// form in is validated, sent as an object and the reply is strictly decoded
// into Out. Any failure there downgrades the tool to the legacy form, which
// receives legacy and is decoded with decodeLegacy.
func Invoke[Out any](ctx context.Context, s *Session, name string, in any, legacy map[string]any, decodeLegacy func(string) (Out, error)) (Out, error) {
	var zero Out

	switch s.Mode(name) {
	case ModeMissing:
		return zero, xerrors.Wrap(xerrors.CodeToolInvocation, ErrToolUnregistered, name, xerrors.WithRetryable(false))
	case ModeStructured:
		out, err := invokeStructured[Out](ctx, s, name, in)
		if err == nil {
			return out, nil
		}
		if xerrors.IsCode(err, xerrors.CodeConfiguration) || ctx.Err() != nil {
			return zero, err
		}
		s.downgrade(name, err)
	}

	raw, err := s.gateway.Execute(ctx, name, legacy)
	if err != nil {
		return zero, toolError(name, err)
	}
	out, err := decodeLegacy(raw)
	if err != nil {
		return zero, xerrors.Wrap(xerrors.CodeToolInvocation, err, name+" returned an unexpected payload", xerrors.WithRetryable(false))
	}
	return out, nil
}

func invokeStructured[Out any](ctx context.Context, s *Session, name string, in any) (Out, error) {
	var out Out

	if in != nil {
		if err := s.validate.Struct(in); err != nil {
			return out, xerrors.Wrap(xerrors.CodeToolInvocation, err, name+" input rejected")
		}
	}
	args, err := toArgs(in)
	if err != nil {
		return out, xerrors.Wrap(xerrors.CodeToolInvocation, err, name+" input encoding")
	}

	raw, err := s.gateway.Execute(ctx, name+v2Suffix, args)
	if err != nil {
		return out, toolError(name+v2Suffix, err)
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, xerrors.Wrap(xerrors.CodeParse, err, name+v2Suffix+" returned malformed output")
	}
	if reflect.ValueOf(out).Kind() == reflect.Struct {
		if err := s.validate.Struct(out); err != nil {
			return out, xerrors.Wrap(xerrors.CodeParse, err, name+v2Suffix+" output rejected")
		}
	}
	return out, nil
}

func toArgs(in any) (map[string]any, error) {
	if in == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	args := map[string]any{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// decodeArgs strictly maps handler arguments onto a validated input struct.
func decodeArgs(v *validator.Validate, args map[string]any, dst any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	if err := v.Struct(dst); err != nil {
		return fmt.Errorf("validate arguments: %w", err)
	}
	return nil
}

func toolError(name string, err error) error {
	if _, ok := xerrors.From(err); ok {
		return err
	}
	return xerrors.Wrap(xerrors.CodeToolInvocation, err, name+" failed")
}

func (s *Session) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Session) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
