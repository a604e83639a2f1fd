package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateCURP(t *testing.T) {
	require.NoError(t, ValidateCURP("AAAA123456HDFBBB01"))
	require.NoError(t, ValidateCURP("GOMC900101MDFRRR09"))

	for _, bad := range []string{
		"AAAA123456HDFBBB0",   // 17 characters
		"AAAA123456HDFBBB012", // 19 characters
		"AAAA123456XDFBBB01",  // sex must be H or M
		"aaaa123456HDFBBB01",  // lower case
		"AAA1123456HDFBBB01",
		"",
	} {
		err := ValidateCURP(bad)
		require.Error(t, err, bad)
		require.True(t, IsValidation(err), bad)
	}
}

func TestCURPRequestRequiresAllFields(t *testing.T) {
	req := CURPRequest{
		CURPID:      "AAAA123456HDFBBB01",
		FirstName:   "Ana",
		LastName:    "Lopez",
		DateOfBirth: "1990-01-01",
	}
	require.NoError(t, req.Validate())

	missing := req
	missing.LastName = "  "
	require.True(t, IsValidation(missing.Validate()))

	badCURP := req
	badCURP.CURPID = "AAAA123456HDFBBB0"
	require.True(t, IsValidation(badCURP.Validate()))
}

func TestBatchBounds(t *testing.T) {
	require.NoError(t, AccountBatch{Count: 1}.Validate())
	require.NoError(t, AccountBatch{Count: MaxAccountBatch}.Validate())
	require.Error(t, AccountBatch{Count: 0}.Validate())
	require.Error(t, AccountBatch{Count: MaxAccountBatch + 1}.Validate())

	require.NoError(t, DemoCURPBatch{Count: 5}.Validate())
	require.Error(t, DemoCURPBatch{Count: 6}.Validate())
	require.Error(t, DemoCURPBatch{Count: 0}.Validate())

	require.NoError(t, DemoAccount{}.Validate())
}

func TestErrorKinds(t *testing.T) {
	cause := ErrUnsupported
	err := NewTransportError("list_jobs", cause)
	require.True(t, IsTransport(err))
	require.False(t, IsValidation(err))
	require.ErrorIs(t, err, ErrUnsupported)
	require.Contains(t, err.Error(), "TransportError: list_jobs")
}
