package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/st-keller/eapi-client/apierr"
	"github.com/st-keller/eapi-client/resource"
)

func TestRegisterValidation(t *testing.T) {
	reg := New()

	assert.EqualError(t, reg.Register("", func(resource.Resource) error { return nil }), "mark required")
	assert.EqualError(t, reg.Register("_eapi_x", nil), "handler required")
}

func TestLookupUnknownMarkIsEmpty(t *testing.T) {
	reg := New()

	handlers := reg.Lookup("_eapi_nothing")
	assert.NotNil(t, handlers)
	assert.Empty(t, handlers)
	assert.Equal(t, 0, reg.Len("_eapi_nothing"))
}

func TestEmitRunsHandlersInRegistrationOrder(t *testing.T) {
	reg := New()
	var calls []string

	require.NoError(t, reg.Register("_eapi_reports_list", func(resource.Resource) error {
		calls = append(calls, "first")
		return nil
	}))
	require.NoError(t, reg.Register("_eapi_reports_list", func(resource.Resource) error {
		calls = append(calls, "second")
		return nil
	}))
	require.NoError(t, reg.Register("_eapi_account_credits", func(resource.Resource) error {
		calls = append(calls, "credits")
		return nil
	}))

	err := reg.Emit(resource.New(resource.Transaction, "_eapi_reports_list", nil, nil, nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, 2, reg.Len("_eapi_reports_list"))
	assert.ElementsMatch(t, []string{"_eapi_reports_list", "_eapi_account_credits"}, reg.Marks())
}

func TestEmitIsolatesFailingHandlers(t *testing.T) {
	reg := New()
	ran := 0

	require.NoError(t, reg.Register("_eapi_m", func(resource.Resource) error {
		ran++
		return errors.New("handler failed")
	}))
	require.NoError(t, reg.Register("_eapi_m", func(resource.Resource) error {
		ran++
		panic("boom")
	}))
	require.NoError(t, reg.Register("_eapi_m", func(resource.Resource) error {
		ran++
		return nil
	}))

	err := reg.Emit(resource.New(resource.Partial, "_eapi_m", nil, nil, nil))

	assert.Equal(t, 3, ran)
	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.ErrCallback)
	assert.Contains(t, err.Error(), "handler failed")
	assert.Contains(t, err.Error(), "handler panicked: boom")
}

func TestConcurrentRegisterAndEmit(t *testing.T) {
	reg := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = reg.Register("_eapi_m", func(resource.Resource) error { return nil })
		}()
		go func() {
			defer wg.Done()
			_ = reg.Emit(resource.New(resource.Transaction, "_eapi_m", nil, nil, nil))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, reg.Len("_eapi_m"))
}
