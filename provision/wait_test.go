package provision_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhang1980s/web-stack-provisioner/provision"
)

func TestWaitPollsUntilEndpoint(t *testing.T) {
	cloud := newFakeCloud()
	cloud.descriptors = [][]provision.DBInstance{
		pending("app-db-1"),
		pending("app-db-1"),
		available("app-db-1", "db.example.com"),
	}
	p := newTestProvisioner(t, cloud)

	result, err := p.Provision(context.Background(), testParams())
	require.NoError(t, err)
	assert.Equal(t, "db.example.com", result.DBHostName)
	assert.Equal(t, 3, cloud.count("DescribeDBInstances"))
}

func TestWaitIgnoresOtherInstances(t *testing.T) {
	cloud := newFakeCloud()
	other := available("someone-else", "other.example.com")
	cloud.descriptors = [][]provision.DBInstance{
		append(other, pending("app-db-1")...),
		nil,
		append(other, available("app-db-1", "db.example.com")...),
	}
	p := newTestProvisioner(t, cloud)

	result, err := p.Provision(context.Background(), testParams())
	require.NoError(t, err)
	assert.Equal(t, "db.example.com", result.DBHostName)
	assert.Equal(t, 3, cloud.count("DescribeDBInstances"))
}

func TestWaitMatchesIdentifierIgnoringCase(t *testing.T) {
	params := testParams()
	params.DBInstanceID = "App-DB-1"
	limited := provision.WithWaitPolicy(provision.WaitPolicy{Delay: time.Millisecond, MaxAttempts: 5})

	t.Run("identifier echoed as requested", func(t *testing.T) {
		cloud := newFakeCloud()
		cloud.descriptors = [][]provision.DBInstance{available("app-db-1", "db.example.com")}
		p := newTestProvisioner(t, cloud, limited)

		result, err := p.Provision(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, "db.example.com", result.DBHostName)
		assert.Equal(t, 1, cloud.count("DescribeDBInstances"))
	})

	t.Run("identifier lowered on create", func(t *testing.T) {
		cloud := newFakeCloud()
		cloud.dbIdentifier = "app-db-1"
		cloud.descriptors = [][]provision.DBInstance{available("app-db-1", "db.example.com")}
		p := newTestProvisioner(t, cloud, limited)

		result, err := p.Provision(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, "db.example.com", result.DBHostName)
		assert.Equal(t, []string{"app-db-1"}, cloud.describeIDs)
	})
}

func TestWaitGivesUpAfterMaxAttempts(t *testing.T) {
	cloud := newFakeCloud()
	cloud.descriptors = [][]provision.DBInstance{pending("app-db-1")}
	p := newTestProvisioner(t, cloud, provision.WithWaitPolicy(provision.WaitPolicy{
		Delay:       time.Millisecond,
		MaxAttempts: 4,
	}))

	_, err := p.Provision(context.Background(), testParams())
	require.Error(t, err)

	var notReady *provision.NotReadyError
	require.ErrorAs(t, err, &notReady)
	assert.Equal(t, "app-db-1", notReady.Identifier)
	assert.Equal(t, "creating", notReady.Status)
	assert.Equal(t, 4, cloud.count("DescribeDBInstances"))
}

func TestWaitGivesUpAfterTimeout(t *testing.T) {
	cloud := newFakeCloud()
	cloud.descriptors = [][]provision.DBInstance{pending("app-db-1")}
	p := newTestProvisioner(t, cloud, provision.WithWaitPolicy(provision.WaitPolicy{
		Delay:         time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
		Timeout:       50 * time.Millisecond,
	}))

	_, err := p.Provision(context.Background(), testParams())
	var notReady *provision.NotReadyError
	require.ErrorAs(t, err, &notReady)
	assert.Greater(t, cloud.count("DescribeDBInstances"), 1)
}

func TestWaitStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cloud := newFakeCloud()
	cloud.descriptors = [][]provision.DBInstance{pending("app-db-1")}
	cloud.describeHook = func(call int) {
		if call == 2 {
			cancel()
		}
	}
	p := newTestProvisioner(t, cloud, provision.WithWaitPolicy(provision.WaitPolicy{
		Delay: 10 * time.Millisecond,
	}))

	done := make(chan error, 1)
	go func() {
		_, err := p.Provision(ctx, testParams())
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("provisioning did not stop after cancellation")
	}
	assert.Equal(t, 2, cloud.count("DescribeDBInstances"))
}

func TestWaitDescribeErrorIsFatal(t *testing.T) {
	cloud := newFakeCloud()
	describeErr := errors.New("DBInstanceNotFound")
	cloud.errs["DescribeDBInstances"] = describeErr
	p := newTestProvisioner(t, cloud)

	_, err := p.Provision(context.Background(), testParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, describeErr)
	assert.Equal(t, 1, cloud.count("DescribeDBInstances"))
}

func TestWaitPolicyValidate(t *testing.T) {
	assert.NoError(t, provision.DefaultWaitPolicy().Validate())
	assert.Error(t, provision.WaitPolicy{}.Validate())
	assert.Error(t, provision.WaitPolicy{Delay: time.Second, MaxAttempts: -1}.Validate())
	assert.Error(t, provision.WaitPolicy{Delay: time.Second, Timeout: -time.Second}.Validate())
}
