package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/discovery-sim/internal/config"
)

func rpc(t *testing.T, cfg config.Config, method string) string {
	t.Helper()
	s, cleanup, err := New(cfg, nil)
	require.NoError(t, err)
	defer cleanup()

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"` + method + `","params":{}}`)
	resp := s.HandleMessage(context.Background(), msg)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(data)
}

func TestNew_RegistersTools(t *testing.T) {
	out := rpc(t, config.Default(), "tools/list")
	for _, name := range []string{
		"sim_start", "sim_book", "sim_ask", "sim_end_interview", "sim_open_flash",
		"sim_flash_followup", "sim_synthesis", "sim_score", "sim_status", "sim_export", "sim_history",
	} {
		assert.Contains(t, out, `"`+name+`"`)
	}
}

func TestNew_RegistersPromptsAndResources(t *testing.T) {
	prompts := rpc(t, config.Default(), "prompts/list")
	assert.Contains(t, prompts, "discovery-start")
	assert.Contains(t, prompts, "discovery-review")

	res := rpc(t, config.Default(), "resources/list")
	assert.Contains(t, res, "discovery://scenario/brief")
	assert.Contains(t, res, "discovery://scenario/channels")
}

func TestNew_JournalDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.Enabled = false
	s, cleanup, err := New(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, s)
	cleanup()
}

func TestNew_JournalDir(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.Dir = filepath.Join(t.TempDir(), "journal")
	_, cleanup, err := New(cfg, nil)
	require.NoError(t, err)
	cleanup()

	_, err = os.Stat(filepath.Join(cfg.Journal.Dir, "journal.db"))
	assert.NoError(t, err)
}

func TestNew_BadScenarioPath(t *testing.T) {
	cfg := config.Default()
	cfg.Scenario = filepath.Join(t.TempDir(), "missing.yaml")
	_, cleanup, err := New(cfg, nil)
	assert.Error(t, err)
	require.NotNil(t, cleanup)
	cleanup()
}

func TestLoadScenario_BudgetOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Budget = 14
	scn, err := loadScenario(cfg)
	require.NoError(t, err)
	assert.Equal(t, 14, scn.Budget)
}

func TestSessionOptions(t *testing.T) {
	cfg := config.Default()
	cfg.MaxQuestions = 6
	cfg.FlashLimit = 2
	opts := sessionOptions(cfg)
	assert.Equal(t, 6, opts.Interview.MaxQuestions)
	assert.Equal(t, 0.4, opts.Interview.GenericAnswerProbability)
	assert.Equal(t, 2, opts.FlashLimit)
	assert.Equal(t, 3, opts.FollowUpLimit)
	assert.Equal(t, 8, opts.MaxBooked)
}
