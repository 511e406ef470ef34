package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeString(t *testing.T) {
	tests := []struct {
		code     Code
		expected string
	}{
		{CodeAccessRequest, "Access-Request"},
		{CodeAccessAccept, "Access-Accept"},
		{CodeAccessReject, "Access-Reject"},
		{CodeAccountingRequest, "Accounting-Request"},
		{CodeAccountingResponse, "Accounting-Response"},
		{CodeAccessChallenge, "Access-Challenge"},
		{CodeStatusServer, "Status-Server"},
		{CodeStatusClient, "Status-Client"},
		{CodeDisconnectRequest, "Disconnect-Request"},
		{CodeDisconnectACK, "Disconnect-ACK"},
		{CodeDisconnectNAK, "Disconnect-NAK"},
		{CodeCoARequest, "CoA-Request"},
		{CodeCoAAck, "CoA-ACK"},
		{CodeCoANak, "CoA-NAK"},
		{CodeProtocolError, "Protocol-Error"},
		{Code(255), "Unknown(255)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.code.String())
		})
	}
}

func TestParseCode(t *testing.T) {
	c, err := ParseCode("coa-request")
	require.NoError(t, err)
	assert.Equal(t, CodeCoARequest, c)

	c, err = ParseCode("4")
	require.NoError(t, err)
	assert.Equal(t, CodeAccountingRequest, c)

	for _, bad := range []string{"", "Frob", "7", "300"} {
		_, err := ParseCode(bad)
		assert.ErrorIs(t, err, ErrInvalidCode, bad)
	}
}

func TestCodeIsValid(t *testing.T) {
	for c := range codeNames {
		assert.True(t, c.IsValid(), c.String())
	}

	for _, c := range []Code{0, 6, 7, 8, 9, 10, 14, 15, 255} {
		assert.False(t, c.IsValid(), c.String())
	}
}

func TestCodeClasses(t *testing.T) {
	requestCodes := []Code{
		CodeAccessRequest, CodeAccountingRequest, CodeStatusServer,
		CodeDisconnectRequest, CodeCoARequest,
	}
	for _, code := range requestCodes {
		assert.True(t, code.IsRequest(), code.String())
		assert.False(t, code.IsResponse(), code.String())
	}

	responseCodes := []Code{
		CodeAccessAccept, CodeAccessReject, CodeAccessChallenge,
		CodeAccountingResponse, CodeStatusClient,
		CodeDisconnectACK, CodeDisconnectNAK,
		CodeCoAAck, CodeCoANak, CodeProtocolError,
	}
	for _, code := range responseCodes {
		assert.True(t, code.IsResponse(), code.String())
		assert.False(t, code.IsRequest(), code.String())
	}

	assert.False(t, Code(99).IsResponse())

	for _, code := range []Code{CodeAccountingRequest, CodeDisconnectRequest, CodeCoARequest} {
		assert.True(t, code.IsHashedRequest(), code.String())
	}
	for _, code := range []Code{CodeAccessRequest, CodeStatusServer, CodeAccessAccept} {
		assert.False(t, code.IsHashedRequest(), code.String())
	}

	assert.True(t, CodeStatusServer.RequiresMessageAuthenticator())
	assert.False(t, CodeAccessRequest.RequiresMessageAuthenticator())
}

func TestCodeExpectedResponseCode(t *testing.T) {
	tests := []struct {
		request   Code
		responses []Code
	}{
		{
			CodeAccessRequest,
			[]Code{CodeAccessAccept, CodeAccessReject, CodeAccessChallenge},
		},
		{
			CodeAccountingRequest,
			[]Code{CodeAccountingResponse},
		},
		{
			CodeStatusServer,
			[]Code{CodeAccessAccept, CodeAccountingResponse},
		},
		{
			CodeDisconnectRequest,
			[]Code{CodeDisconnectACK, CodeDisconnectNAK},
		},
		{
			CodeCoARequest,
			[]Code{CodeCoAAck, CodeCoANak},
		},
		{
			CodeAccessAccept, // Response code should return nil
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.request.String(), func(t *testing.T) {
			responses := tt.request.ExpectedResponseCode()
			assert.Equal(t, tt.responses, responses)
		})
	}
}
