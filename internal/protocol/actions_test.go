package protocol

import "testing"

func TestParseActionRegister(t *testing.T) {
	env, payload, err := ParseAction([]byte(`{"action":"register","userId":"alice"}`))
	if err != nil {
		t.Fatalf("ParseAction() error: %v", err)
	}
	if env.Action != ActionRegister || env.UserID != "alice" {
		t.Errorf("unexpected envelope: %+v", env)
	}
	if _, ok := payload.(RegisterPayload); !ok {
		t.Errorf("expected RegisterPayload, got %T", payload)
	}
}

func TestParseActionSend(t *testing.T) {
	body := []byte(`{"action":"send","userId":"alice","data":{"from":"alice","to":"bob","message":"hi"}}`)
	_, payload, err := ParseAction(body)
	if err != nil {
		t.Fatalf("ParseAction() error: %v", err)
	}
	p, ok := payload.(SendPayload)
	if !ok {
		t.Fatalf("expected SendPayload, got %T", payload)
	}
	if p.From != "alice" || p.To != "bob" || p.Message != "hi" {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestParseActionTyping(t *testing.T) {
	body := []byte(`{"action":"typing","userId":"alice","data":{"chatWith":"bob","isTyping":true}}`)
	_, payload, err := ParseAction(body)
	if err != nil {
		t.Fatalf("ParseAction() error: %v", err)
	}
	p := payload.(TypingPayload)
	if p.ChatWith != "bob" || p.IsTyping == nil || !*p.IsTyping {
		t.Errorf("unexpected payload: %+v", p)
	}

	// isTyping false is valid and distinct from missing.
	body = []byte(`{"action":"typing","userId":"alice","data":{"chatWith":"bob","isTyping":false}}`)
	_, payload, err = ParseAction(body)
	if err != nil {
		t.Fatalf("ParseAction() error: %v", err)
	}
	if p := payload.(TypingPayload); p.IsTyping == nil || *p.IsTyping {
		t.Errorf("expected isTyping=false, got %+v", p)
	}
}

func TestParseActionRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing action", `{"userId":"alice"}`},
		{"unknown action", `{"action":"subscribe","userId":"alice"}`},
		{"missing userId", `{"action":"register"}`},
		{"whitespace userId", `{"action":"register","userId":"  "}`},
		{"search without searchId", `{"action":"search","userId":"alice","data":{}}`},
		{"search empty searchId", `{"action":"search","userId":"alice","data":{"searchId":" "}}`},
		{"send missing body", `{"action":"send","userId":"alice","data":{"from":"alice","to":"bob"}}`},
		{"mark_read without chatWith", `{"action":"mark_read","userId":"alice","data":{}}`},
		{"typing without isTyping", `{"action":"typing","userId":"alice","data":{"chatWith":"bob"}}`},
		{"typing without chatWith", `{"action":"typing","userId":"alice","data":{"isTyping":true}}`},
		{"typing without data", `{"action":"typing","userId":"alice"}`},
	}

	for _, c := range cases {
		if _, _, err := ParseAction([]byte(c.body)); err == nil {
			t.Errorf("%s: expected parse error, got none", c.name)
		}
	}
}

func TestParseActionMarkRead(t *testing.T) {
	body := []byte(`{"action":"mark_read","userId":"alice","data":{"chatWith":"bob"}}`)
	_, payload, err := ParseAction(body)
	if err != nil {
		t.Fatalf("ParseAction() error: %v", err)
	}
	if p := payload.(MarkReadPayload); p.ChatWith != "bob" {
		t.Errorf("unexpected payload: %+v", p)
	}
}
