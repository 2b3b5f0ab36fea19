// Package snmsg implements the "prefix: key=value ..." text grammar carried
// over the xmessage sidechannel: a prefix (new, change, remove for the
// monitor protocol), followed by space-separated key=value pairs where the
// value is a bareword, a backslash-escaped double-quoted string, or a
// literal single-quoted string.
package snmsg

import (
	"fmt"
	"strings"
)

// Message is a parsed "prefix: key=value ..." record.
type Message struct {
	Prefix string
	Keys   []string
	Values []string
}

// Get returns the value for key and whether it was present.
func (m *Message) Get(key string) (string, bool) {
	for i, k := range m.Keys {
		if k == key {
			return m.Values[i], true
		}
	}
	return "", false
}

// Serialize renders prefix and the ordered (keys, values) pairs using the
// backslash-escape value form — the form this package's own Parse always
// accepts, regardless of how the peer chose to quote its values.
func Serialize(prefix string, keys, values []string) (string, error) {
	if len(keys) != len(values) {
		return "", fmt.Errorf("snmsg: keys/values length mismatch")
	}
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(": ")
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(escapeValue(values[i]))
	}
	return b.String(), nil
}

func escapeValue(v string) string {
	var b strings.Builder
	for _, r := range v {
		switch r {
		case '\\', '"', ' ':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Parse decomposes a "prefix: key=value ..." record. It accepts all three
// value forms the grammar allows: a backslash-escaped bareword, a
// double-quoted string (escaping \, ", `, $ and newline), or a literal
// single-quoted string.
func Parse(raw string) (*Message, error) {
	colon := strings.Index(raw, ":")
	if colon < 0 {
		return nil, fmt.Errorf("snmsg: missing ':' in %q", raw)
	}
	msg := &Message{Prefix: strings.TrimSpace(raw[:colon])}

	rest := raw[colon+1:]
	i := 0
	n := len(rest)
	for i < n {
		for i < n && rest[i] == ' ' {
			i++
		}
		if i >= n {
			break
		}
		start := i
		for i < n && rest[i] != '=' {
			i++
		}
		if i >= n {
			return nil, fmt.Errorf("snmsg: key without '=' in %q", raw)
		}
		key := strings.TrimSpace(rest[start:i])
		i++ // skip '='

		value, consumed, err := parseValue(rest[i:])
		if err != nil {
			return nil, err
		}
		i += consumed

		msg.Keys = append(msg.Keys, key)
		msg.Values = append(msg.Values, value)
	}
	return msg, nil
}

// parseValue reads one value starting at s[0] and returns the decoded
// value plus how many bytes of s it consumed.
func parseValue(s string) (string, int, error) {
	if len(s) == 0 {
		return "", 0, nil
	}

	switch s[0] {
	case '\'':
		end := strings.IndexByte(s[1:], '\'')
		if end < 0 {
			return "", 0, fmt.Errorf("snmsg: unterminated single-quoted value")
		}
		return s[1 : 1+end], 1 + end + 1, nil

	case '"':
		var b strings.Builder
		i := 1
		for i < len(s) {
			c := s[i]
			if c == '"' {
				return b.String(), i + 1, nil
			}
			if c == '\\' && i+1 < len(s) {
				switch s[i+1] {
				case '\\', '"', '`', '$', '\n':
					b.WriteByte(s[i+1])
					i += 2
					continue
				}
			}
			b.WriteByte(c)
			i++
		}
		return "", 0, fmt.Errorf("snmsg: unterminated double-quoted value")

	default:
		var b strings.Builder
		i := 0
		for i < len(s) {
			c := s[i]
			if c == ' ' {
				break
			}
			if c == '\\' && i+1 < len(s) {
				switch s[i+1] {
				case '\\', '"', ' ':
					b.WriteByte(s[i+1])
					i += 2
					continue
				}
			}
			b.WriteByte(c)
			i++
		}
		return b.String(), i, nil
	}
}
