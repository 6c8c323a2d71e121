package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRelationship(t *testing.T) {
	c := relationshipMutations.WithLabelValues("add", "friend", ResultCreated)
	before := testutil.ToFloat64(c)
	ObserveRelationship("add", "friend", ResultCreated)
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestObserveLogin(t *testing.T) {
	c := loginAttempts.WithLabelValues("success")
	before := testutil.ToFloat64(c)
	ObserveLogin("success")
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
