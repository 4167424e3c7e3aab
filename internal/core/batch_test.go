package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_IsolatesFailures(t *testing.T) {
	c := testCleaner(&scriptedRandom{})
	step := func(ctx context.Context, name string) (FileOutcome, error) {
		switch name {
		case "bad.xls":
			return FileOutcome{}, &ValidationError{File: name, Err: ErrUnsupportedType}
		case "boom.csv":
			panic("decoder blew up")
		}
		return FileOutcome{Rows: 3, Output: "cleaned_" + name}, nil
	}

	var last Progress
	res := c.Batch(context.Background(), []string{"a.csv", "bad.xls", "boom.csv", "b.csv"}, step, func(p Progress) { last = p })

	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Files, 4)

	assert.Equal(t, StatusSuccess, res.Files[0].Status)
	assert.Equal(t, "cleaned_a.csv", res.Files[0].Output)
	assert.Equal(t, "a.csv", res.Files[0].Name)

	assert.Equal(t, StatusFailed, res.Files[1].Status)
	assert.Equal(t, "validation", res.Files[1].ErrorKind)
	assert.ErrorIs(t, res.Files[1].Err, ErrUnsupportedType)

	assert.Equal(t, StatusFailed, res.Files[2].Status)
	assert.Equal(t, "processing", res.Files[2].ErrorKind)

	assert.Equal(t, StatusSuccess, res.Files[3].Status)
	assert.Equal(t, []string{"bad.xls", "boom.csv"}, res.FailedNames())

	assert.Equal(t, PhaseComplete, last.Phase)
	acts := actions(res.Log)
	assert.Equal(t, "Batch Summary", acts[len(acts)-2])
	assert.Equal(t, "Failed Files", acts[len(acts)-1])
	assert.Equal(t, "bad.xls, boom.csv", res.Log[len(res.Log)-1].Details)
}

func TestBatch_CancelMarksRemaining(t *testing.T) {
	c := testCleaner(&scriptedRandom{})
	ctx, cancel := context.WithCancel(context.Background())

	var seen []string
	step := func(ctx context.Context, name string) (FileOutcome, error) {
		seen = append(seen, name)
		cancel()
		return FileOutcome{}, nil
	}

	res := c.Batch(ctx, []string{"a.csv", "b.csv", "c.csv"}, step, nil)
	assert.Equal(t, []string{"a.csv"}, seen)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, StatusCancelled, res.Files[1].Status)
	assert.Equal(t, StatusCancelled, res.Files[2].Status)
	assert.True(t, errors.Is(res.Files[2].Err, context.Canceled))
}

func TestBatch_AllSucceed(t *testing.T) {
	c := testCleaner(&scriptedRandom{})
	step := func(ctx context.Context, name string) (FileOutcome, error) {
		return FileOutcome{Rows: 1}, nil
	}
	res := c.Batch(context.Background(), []string{"a.csv"}, step, nil)
	assert.Equal(t, 1, res.Success)
	assert.Empty(t, res.FailedNames())
	assert.Equal(t, SeveritySuccess, res.Log[len(res.Log)-1].Severity)
}
