package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/model"
)

func TestMergeToolCallDelta_NewCall(t *testing.T) {
	merged := model.MergeToolCallDelta(nil, model.ToolCallDelta{
		ID:       "call_1",
		Index:    0,
		Type:     "function",
		Function: model.ToolCallFunction{Name: "search", Arguments: `{"q":`},
	}, 42)

	require.Len(t, merged, 1)
	assert.Equal(t, "call_1", merged[0].ID)
	assert.Equal(t, "search", merged[0].Function.Name)
	assert.Equal(t, `{"q":`, merged[0].Function.Arguments)
	assert.Equal(t, 42, merged[0].TextOffset)
}

func TestMergeToolCallDelta_ResolvesByIDBeforeIndex(t *testing.T) {
	existing := []model.ToolCall{
		{ID: "call_1", Index: 0, Function: model.ToolCallFunction{Name: "search", Arguments: "abc"}},
		{ID: "call_2", Index: 1, Function: model.ToolCallFunction{Name: "fetch", Arguments: "xyz"}},
	}

	// The fragment's index points at slot 0, but its id matches call_2: id wins.
	merged := model.MergeToolCallDelta(existing, model.ToolCallDelta{
		ID:       "call_2",
		Index:    1,
		Function: model.ToolCallFunction{Arguments: "123"},
	}, 0)

	require.Len(t, merged, 2)
	assert.Equal(t, "abc", merged[0].Function.Arguments)
	assert.Equal(t, "xyz123", merged[1].Function.Arguments)
}

func TestMergeToolCallDelta_ResolvesByIndexWithoutID(t *testing.T) {
	existing := []model.ToolCall{
		{Index: 0, Function: model.ToolCallFunction{Name: "search", Arguments: `{"q":"go`}},
	}

	merged := model.MergeToolCallDelta(existing, model.ToolCallDelta{
		Index:    0,
		Function: model.ToolCallFunction{Arguments: `lang"}`},
	}, 0)

	require.Len(t, merged, 1)
	assert.Equal(t, `{"q":"golang"}`, merged[0].Function.Arguments)
}

func TestMergeToolCallDelta_LateIDBindsToIndexSlot(t *testing.T) {
	// First fragment carries only the index; the id arrives later.
	merged := model.MergeToolCallDelta(nil, model.ToolCallDelta{
		Index:    0,
		Function: model.ToolCallFunction{Name: "search"},
	}, 10)
	merged = model.MergeToolCallDelta(merged, model.ToolCallDelta{
		ID:    "call_1",
		Index: 0,
	}, 25)

	require.Len(t, merged, 1)
	assert.Equal(t, "call_1", merged[0].ID)
	assert.Equal(t, "search", merged[0].Function.Name)
	// TextOffset is fixed at first observation.
	assert.Equal(t, 10, merged[0].TextOffset)
}

func TestMergeToolCallDelta_PrefixResendReplaces(t *testing.T) {
	existing := []model.ToolCall{
		{ID: "call_1", Index: 0, Function: model.ToolCallFunction{Arguments: `{"q":`}},
	}

	// A resend from the start carries the old accumulation as a prefix.
	merged := model.MergeToolCallDelta(existing, model.ToolCallDelta{
		ID:       "call_1",
		Index:    0,
		Function: model.ToolCallFunction{Arguments: `{"q":"golang"}`},
	}, 0)

	require.Len(t, merged, 1)
	assert.Equal(t, `{"q":"golang"}`, merged[0].Function.Arguments)
}

func TestMergeToolCallDelta_DuplicateDeliveryIsIdempotent(t *testing.T) {
	delta := model.ToolCallDelta{
		ID:       "call_1",
		Index:    0,
		Type:     "function",
		Function: model.ToolCallFunction{Name: "search"},
	}
	once := model.MergeToolCallDelta(nil, delta, 0)
	twice := model.MergeToolCallDelta(once, delta, 99)

	assert.Equal(t, once, twice)
}

func TestMergeToolCallDelta_DoesNotMutateInput(t *testing.T) {
	existing := []model.ToolCall{
		{ID: "call_1", Index: 0, Function: model.ToolCallFunction{Arguments: "abc"}},
	}

	_ = model.MergeToolCallDelta(existing, model.ToolCallDelta{
		ID:       "call_1",
		Index:    0,
		Function: model.ToolCallFunction{Arguments: "def"},
	}, 0)

	assert.Equal(t, "abc", existing[0].Function.Arguments)
}

func TestMergeToolCallDelta_DistinctIndexesAppend(t *testing.T) {
	merged := model.MergeToolCallDelta(nil, model.ToolCallDelta{Index: 0, ID: "call_1"}, 0)
	merged = model.MergeToolCallDelta(merged, model.ToolCallDelta{Index: 1, ID: "call_2"}, 5)

	require.Len(t, merged, 2)
	assert.Equal(t, "call_1", merged[0].ID)
	assert.Equal(t, "call_2", merged[1].ID)
	assert.Equal(t, 5, merged[1].TextOffset)
}

func TestAppendToolOutput_DedupByCallID(t *testing.T) {
	outputs := model.AppendToolOutput(nil, model.ToolOutput{ToolCallID: "call_1", Output: "partial"})
	outputs = model.AppendToolOutput(outputs, model.ToolOutput{ToolCallID: "call_1", Output: "final"})

	require.Len(t, outputs, 1)
	assert.Equal(t, "final", outputs[0].Output)
}

func TestAppendToolOutput_DedupByNameWithoutID(t *testing.T) {
	outputs := model.AppendToolOutput(nil, model.ToolOutput{Name: "search", Output: "first"})
	outputs = model.AppendToolOutput(outputs, model.ToolOutput{Name: "search", Output: "second"})
	outputs = model.AppendToolOutput(outputs, model.ToolOutput{Name: "fetch", Output: "other"})

	require.Len(t, outputs, 2)
	assert.Equal(t, "second", outputs[0].Output)
	assert.Equal(t, "other", outputs[1].Output)
}

func TestAppendToolOutput_ErrorOutputKept(t *testing.T) {
	outputs := model.AppendToolOutput(nil, model.ToolOutput{ToolCallID: "call_1", Output: "boom", IsError: true})

	require.Len(t, outputs, 1)
	assert.True(t, outputs[0].IsError)
}
