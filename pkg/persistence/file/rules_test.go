package file_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence/file"
)

func TestSaveRuleConcurrent(t *testing.T) {
	t.Parallel()

	p := file.NewPersistence(t.TempDir())

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func(priority int) {
			defer wg.Done()

			err := p.RuleRepository().SaveRule(context.Background(), &models.RuleRecord{
				Code:       "RACY_RULE",
				Conditions: json.RawMessage(`{"userRole":"ADMIN"}`),
				Action:     models.RuleActionAllow,
				Priority:   priority,
				Active:     true,
				Version:    "1.0",
			})
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	rules, err := p.RuleRepository().ActiveRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "RACY_RULE", rules[0].Code)
}
