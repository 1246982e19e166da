// Package reply turns raw model text into a tagged value call sites can
// switch on instead of slicing strings.
package reply

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	xerrors "NewsAgent/internal/errors"
	"NewsAgent/internal/ports"
)

// Kind tags a Reply.
type Kind int

const (
	// Unparseable means no JSON object could be recovered from the text.
	Unparseable Kind = iota
	// Structured means Value holds a syntactically valid JSON object.
	Structured
)

func (k Kind) String() string {
	if k == Structured {
		return "structured"
	}
	return "unparseable"
}

// Reply is the tagged result of parsing model output.
type Reply struct {
	Kind  Kind
	Value json.RawMessage
	Raw   string
}

// Parse extracts the first balanced {...} span from text.
func Parse(text string) Reply {
	r := Reply{Kind: Unparseable, Raw: text}
	span, ok := firstObject(text)
	if !ok || !json.Valid([]byte(span)) {
		return r
	}
	r.Kind = Structured
	r.Value = json.RawMessage(span)
	return r
}

// Decode strictly decodes a structured reply into dst.
// Unparseable replies and shape mismatches yield a PARSE error.
func Decode(r Reply, dst any) error {
	if r.Kind != Structured {
		return xerrors.New(xerrors.CodeParse, "reply is not a JSON object")
	}
	dec := json.NewDecoder(bytes.NewReader(r.Value))
	if err := dec.Decode(dst); err != nil {
		return xerrors.Wrap(xerrors.CodeParse, err, "decode reply")
	}
	return nil
}

// Ask sends prompt through client bounded by timeout and parses the answer.
// A deadline overrun is reported as COLLABORATOR_TIMEOUT.
func Ask(ctx context.Context, client ports.ChatClient, timeout time.Duration, prompt string) (Reply, error) {
	text, err := Complete(ctx, client, timeout, prompt)
	if err != nil {
		return Reply{Kind: Unparseable}, err
	}
	return Parse(text), nil
}

// Complete is Ask without parsing.
func Complete(ctx context.Context, client ports.ChatClient, timeout time.Duration, prompt string) (string, error) {
	if client == nil {
		return "", xerrors.New(xerrors.CodeConfiguration, "language model client is not configured")
	}
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text, err := client.Complete(callCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", xerrors.Wrap(xerrors.CodeCollaboratorTimeout, err, fmt.Sprintf("model call exceeded %s", timeout))
		}
		return "", fmt.Errorf("complete prompt: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// firstObject scans for the first balanced object, ignoring braces inside
// JSON string literals.
func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			c := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}
