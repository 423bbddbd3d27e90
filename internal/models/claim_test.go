package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Clients branch on the lowercase claim status values; the application
// statuses stay capitalized. Pin both so a constant edit cannot silently
// change the wire contract.
func TestStatusWireValues(t *testing.T) {
	assert.Equal(t, "pending", string(ClaimPending))
	assert.Equal(t, "approved", string(ClaimApproved))
	assert.Equal(t, "Pending", string(ApplicationPending))
	assert.Equal(t, "Due", string(PaymentDue))

	body, err := json.Marshal(Claim{ID: "clm-1", Status: ClaimPending})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"status":"pending"`)
}
