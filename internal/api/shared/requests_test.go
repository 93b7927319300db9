package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createRequest struct {
	Name  string `json:"name"  validate:"required"`
	Count int    `json:"count" validate:"gte=0"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid json", body: `{"name":"CM1","count":2}`},
		{name: "trailing comma", body: `{"name":"CM1",}`, wantErr: true},
		{name: "empty body", body: "", wantErr: true},
		{name: "unknown field", body: `{"name":"CM1","colour":"red"}`, wantErr: true},
		{name: "trailing data", body: `{"name":"CM1"} {"name":"CM2"}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var out createRequest
			err := DecodeJSON(req, &out)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "CM1", out.Name)
		})
	}
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return assert.AnError
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&createRequest{Name: "x"}))

	err := ValidateRequest(&createRequest{Count: -1})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)

	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.ErrorIs(t, ValidateRequest(selfValidating{}), assert.AnError)
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`))
	assert.ErrorIs(t, DecodeAndValidate(req, &createRequest{}), ErrInvalidBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"count":1}`))
	err := DecodeAndValidate(req, &createRequest{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidBody)
}
