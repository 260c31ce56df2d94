package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPSender_Send(t *testing.T) {
	var got sendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, "key", "ClassCrew", time.Second)
	if err := s.Send(context.Background(), "01012345678", "012345"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if auth != "Bearer key" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.To != "01012345678" || got.From != "ClassCrew" {
		t.Errorf("request = %+v", got)
	}
	if !strings.Contains(got.Text, "012345") {
		t.Errorf("text %q does not contain the code", got.Text)
	}
}

func TestHTTPSender_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, "", "", time.Second)
	err := s.Send(context.Background(), "01012345678", "000001")
	if err == nil {
		t.Fatal("expected error on non-2xx status")
	}
	if !strings.Contains(err.Error(), "402") {
		t.Errorf("error %q does not mention the status", err)
	}
}

func TestConsoleSender(t *testing.T) {
	if err := NewConsoleSender().Send(context.Background(), "010", "123456"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}
