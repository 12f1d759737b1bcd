package gateway

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"payment-reconciler/internal/domain"
)

// ParseNotification normalizes a raw webhook body into one canonical
// PaymentNotification. The gateway is inconsistent about encoding: the
// same notification may arrive as nested JSON, as flat form fields, or
// as bracket-nested form fields (data[customFields][cField1]=42). All
// three collapse into the same nested map before field extraction, so
// the reconciler never branches on wire shape. Unknown fields are
// ignored.
func ParseNotification(contentType string, body []byte) (*domain.PaymentNotification, error) {
	fields, err := decodeBody(contentType, body)
	if err != nil {
		return nil, domain.ErrInvalidPayload
	}

	status, ok := lookupInt(fields,
		[]string{"status"},
		[]string{"data", "status"},
		[]string{"statusCode"},
	)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}

	ref, ok := lookupString(fields,
		[]string{"data", "customFields", "cField1"},
		[]string{"customFields", "cField1"},
		[]string{"cField1"},
	)
	if !ok || ref == "" {
		return nil, domain.ErrMissingOrderReference
	}
	orderID, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || orderID <= 0 {
		return nil, domain.ErrMissingOrderReference
	}

	n := &domain.PaymentNotification{Status: status, OrderID: orderID}
	n.TransactionID, _ = lookupString(fields,
		[]string{"data", "asmachta"},
		[]string{"asmachta"},
	)
	n.TransactionToken, _ = lookupString(fields,
		[]string{"data", "transactionToken"},
		[]string{"transactionToken"},
	)
	n.CardSuffix, _ = lookupString(fields,
		[]string{"data", "cardSuffix"},
		[]string{"cardSuffix"},
	)
	return n, nil
}

func decodeBody(contentType string, body []byte) (map[string]any, error) {
	if strings.Contains(contentType, "json") || looksLikeJSON(body) {
		var m map[string]any
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, err
		}
		return m, nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	m := make(map[string]any)
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		setBracketKey(m, key, vals[0])
	}
	return m, nil
}

func looksLikeJSON(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "{")
}

// setBracketKey expands a form key like data[customFields][cField1]
// into nested maps. Malformed keys are kept flat so a sloppy gateway
// payload still resolves through the flat lookup path.
func setBracketKey(m map[string]any, key, value string) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		m[key] = value
		return
	}

	segments := []string{key[:open]}
	rest := key[open:]
	for _, part := range strings.Split(rest, "[") {
		part = strings.TrimSuffix(part, "]")
		if part != "" {
			segments = append(segments, part)
		}
	}

	node := m
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
}

func lookup(m map[string]any, paths ...[]string) (any, bool) {
	for _, path := range paths {
		node := any(m)
		found := true
		for _, seg := range path {
			child, ok := node.(map[string]any)
			if !ok {
				found = false
				break
			}
			node, ok = child[seg]
			if !ok {
				found = false
				break
			}
		}
		if found {
			return node, true
		}
	}
	return nil, false
}

func lookupString(m map[string]any, paths ...[]string) (string, bool) {
	v, ok := lookup(m, paths...)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

func lookupInt(m map[string]any, paths ...[]string) (int, bool) {
	v, ok := lookup(m, paths...)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return int(t), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return i, true
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
