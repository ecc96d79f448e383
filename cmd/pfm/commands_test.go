package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/model"
	"github.com/Veraticus/pfm-classifier/internal/storage"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// executeCommand runs a fresh command tree with args in an isolated home
// directory and returns stdout. Flag values never leak between calls.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PFM_DATABASE_PATH", filepath.Join(home, "pfm.db"))

	viper.Reset()
	config.SetDefaults(viper.GetViper())

	var out bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "pfm dev\n", out)
}

func TestRegistryCommand(t *testing.T) {
	out, err := executeCommand(t, "registry")
	require.NoError(t, err)

	var got struct {
		Categories []string `yaml:"categories"`
		Model      struct {
			Solver string `yaml:"solver"`
		} `yaml:"model"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Contains(t, got.Categories, "Groceries")
	assert.Contains(t, got.Categories, "Other")
	assert.NotEmpty(t, got.Model.Solver)
}

func TestGenerateCommand_CSV(t *testing.T) {
	out, err := executeCommand(t, "generate", "-o", "-", "--per-category", "2", "--override", "Other=1", "--seed", "7")
	require.NoError(t, err)

	rows, err := storage.ReadCSV(strings.NewReader(out))
	require.NoError(t, err)
	// 8 categories x 2, Other x 1, plus the fixed edge cases
	assert.Len(t, rows, 8*2+1+4)

	again, err := executeCommand(t, "generate", "-o", "-", "--per-category", "2", "--override", "Other=1", "--seed", "7")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestGenerateCommand_NothingToDo(t *testing.T) {
	_, err := executeCommand(t, "generate")
	assert.Error(t, err)
}

func TestExecuteCommand_FlagsDoNotLeak(t *testing.T) {
	_, err := executeCommand(t, "generate", "-o", "-", "--per-category", "1")
	require.NoError(t, err)

	_, err = executeCommand(t, "generate")
	assert.Error(t, err, "output flag from the previous run must not carry over")
}

func TestTrainThenPredict(t *testing.T) {
	if testing.Short() {
		t.Skip("trains a model")
	}
	modelPath := filepath.Join(t.TempDir(), "model.json")

	out, err := executeCommand(t, "train", "--no-store", "--json", "--per-category", "30", "--seed", "42", "-p", modelPath)
	require.NoError(t, err)

	var report struct {
		Accuracy float64 `json:"accuracy"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Greater(t, report.Accuracy, 0.7)

	_, err = os.Stat(modelPath)
	require.NoError(t, err)

	out, err = executeCommand(t, "predict", "-p", modelPath, "-m", "Tesco", "-d", "groceries", "-a", "-43", "-k", "2")
	require.NoError(t, err)

	var resp struct {
		Input struct {
			Merchant string `json:"merchant"`
			TopK     int    `json:"topk"`
		} `json:"input"`
		Top1 *model.CategoryRanking `json:"top1"`
		TopK []model.CategoryRanking `json:"topk"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Tesco", resp.Input.Merchant)
	assert.Equal(t, 2, resp.Input.TopK)
	require.NotNil(t, resp.Top1)
	assert.Equal(t, "Groceries", resp.Top1.Category)
	assert.Len(t, resp.TopK, 2)
}

func TestPredict_MissingModel(t *testing.T) {
	_, err := executeCommand(t, "predict", "-p", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.ofx", "b.ofx", "c.qfx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.ofx"), filepath.Join(dir, "c.qfx")})
	require.NoError(t, err)
	assert.Len(t, files, 3)

	_, err = expandFiles([]string{filepath.Join(dir, "*.csv")})
	assert.Error(t, err)
}
