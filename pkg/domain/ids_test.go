package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "nonconf/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant: IDs must be
// valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseRecordID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseRecordID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseRecordID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		recID, err := ParseRecordID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, RecordID(validUUID), recID)
	})
}

// TestParseID_TrustBoundary validates parsing rules against hostile input at
// API entry points.
func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE records;--", true},
		{"path traversal", "../../../etc/passwd", true},
		{"null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"oversized input", strings.Repeat("a", 1000), true},
		{"empty string", "", true},
		{"nil UUID", uuid.Nil.String(), true},
		{"whitespace only", "   ", true},
		{"uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUserID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures every ID type shares the same
// parsing behavior; inconsistent validation across types is a hole.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errUser := ParseUserID(validUUID)
		_, errRecord := ParseRecordID(validUUID)
		_, errProduct := ParseProductID(validUUID)
		_, errContact := ParseContactID(validUUID)
		_, errEvent := ParseEventID(validUUID)
		_, errTransition := ParseTransitionID(validUUID)
		_, errNotification := ParseNotificationID(validUUID)

		require.NoError(t, errUser)
		require.NoError(t, errRecord)
		require.NoError(t, errProduct)
		require.NoError(t, errContact)
		require.NoError(t, errEvent)
		require.NoError(t, errTransition)
		require.NoError(t, errNotification)
	})

	for _, input := range invalidInputs {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errUser := ParseUserID(input)
			_, errRecord := ParseRecordID(input)
			_, errEvent := ParseEventID(input)
			_, errNotification := ParseNotificationID(input)

			require.Error(t, errUser)
			require.Error(t, errRecord)
			require.Error(t, errEvent)
			require.Error(t, errNotification)
		})
	}
}

func TestIsNil(t *testing.T) {
	assert.True(t, RecordID{}.IsNil())
	assert.False(t, NewRecordID().IsNil())
	assert.True(t, UserID{}.IsNil())
	assert.False(t, NewUserID().IsNil())
}
