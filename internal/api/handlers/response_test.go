package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/markdave123-py/Docshelf/internal/core"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: invalid file type", core.ErrValidation), http.StatusBadRequest, "invalid file type"},
		{fmt.Errorf("%w: Invalid username or password", core.ErrUnauthorized), http.StatusUnauthorized, "Invalid username or password"},
		{fmt.Errorf("%w: not yours", core.ErrForbidden), http.StatusForbidden, "not yours"},
		{fmt.Errorf("%w: document not found", core.ErrNotFound), http.StatusNotFound, "document not found"},
		{fmt.Errorf("%w: drive metadata: status 404", core.ErrUpstreamFetch), http.StatusBadRequest, "drive metadata: status 404"},
		{errors.New("disk full"), http.StatusInternalServerError, "disk full"},
		{&http.MaxBytesError{Limit: 1}, http.StatusBadRequest, "file too large"},
	}
	for _, tc := range cases {
		status, msg := classify(tc.err)
		if status != tc.status || msg != tc.msg {
			t.Errorf("classify(%v) = %d %q, want %d %q", tc.err, status, msg, tc.status, tc.msg)
		}
	}
}

func TestUserIDAcceptsNumberOrString(t *testing.T) {
	for in, want := range map[string]int64{
		`{"user_id":12}`:   12,
		`{"user_id":"12"}`: 12,
		`{"user_id":null}`: 0,
		`{}`:               0,
	} {
		var req driveUploadRequest
		if err := json.Unmarshal([]byte(in), &req); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if int64(req.UserID) != want {
			t.Errorf("%s: user_id = %d, want %d", in, req.UserID, want)
		}
	}

	var req driveUploadRequest
	if err := json.Unmarshal([]byte(`{"user_id":"abc"}`), &req); err == nil {
		t.Fatal("expected error for non-numeric user_id")
	}
}
