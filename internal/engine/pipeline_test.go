package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billextract/constants"
)

func TestPipelineEndToEnd(t *testing.T) {
	p := NewPipeline(nil, nil, nil)
	res := p.Process([]RawPage{
		{
			PageNo:   "1",
			PageType: "Bill Detail",
			Items: []RawItemCandidate{
				{Name: "Livi 300mg Tab", Amount: 448.0, Rate: 32.0, Quantity: 14.0},
				{Name: "Sub Total", Amount: 448.0},
			},
		},
		{
			PageNo:   "2",
			PageType: "Final Bill",
			Items: []RawItemCandidate{
				{Name: "Metnuro", Amount: 124.03, Rate: 17.72, Quantity: 7.0},
				{Name: "Grand Total", Amount: 572.03},
			},
		},
	})

	require.Len(t, res.Pages, 2)
	assert.Equal(t, "1", res.Pages[0].PageNo)
	assert.Equal(t, constants.PageTypeBillDetail, res.Pages[0].PageType)
	assert.Equal(t, constants.PageTypeFinalBill, res.Pages[1].PageType)

	require.Len(t, res.Pages[0].Items, 1)
	require.Len(t, res.Pages[1].Items, 1)
	assert.Equal(t, "Livi 300mg Tab", res.Pages[0].Items[0].Name)
	assert.Equal(t, "Metnuro", res.Pages[1].Items[0].Name)

	assert.Equal(t, 2, res.Reconciliation.TotalItemCount)
	assert.Equal(t, "572.03", res.Reconciliation.ReconciledAmount.String())
}

func TestPipelineCrossPageDeduplication(t *testing.T) {
	p := NewPipeline(nil, nil, nil)
	res := p.Process([]RawPage{
		{PageNo: "1", Items: []RawItemCandidate{{Name: "Metnuro", Amount: 124.03}}},
		{PageNo: "2", Items: []RawItemCandidate{{Name: "Metnuro Tab", Amount: 124.00}}},
	})
	assert.Equal(t, 1, res.Reconciliation.TotalItemCount)
	require.Len(t, res.Pages[0].Items, 1)
	assert.Empty(t, res.Pages[1].Items)
	assert.Equal(t, "124.03", res.Reconciliation.ReconciledAmount.String())
}

func TestPipelineSummaryOnlyPageIsEmptyNotFatal(t *testing.T) {
	p := NewPipeline(nil, nil, nil)
	res := p.Process([]RawPage{
		{PageNo: "1", Items: []RawItemCandidate{{Name: "Livi 300mg Tab", Amount: 448.0}}},
		{PageNo: "2", Items: []RawItemCandidate{
			{Name: "Sub Total", Amount: 448.0},
			{Name: "Grand Total", Amount: 448.0},
		}},
	})
	require.Len(t, res.Pages, 2)
	assert.NotNil(t, res.Pages[1].Items)
	assert.Empty(t, res.Pages[1].Items)
	assert.Equal(t, 1, res.Reconciliation.TotalItemCount)
	assert.Equal(t, "448", res.Reconciliation.ReconciledAmount.String())
}

func TestPipelinePreservesPageOrder(t *testing.T) {
	p := NewPipeline(nil, nil, nil)
	res := p.Process([]RawPage{
		{PageNo: "3", Items: []RawItemCandidate{{Name: "Room Rent", Amount: 1500.0}}},
		{PageNo: "1", Items: []RawItemCandidate{{Name: "Metnuro", Amount: 124.03}}},
		{PageNo: "2", Items: []RawItemCandidate{{Name: "Surgical Gloves", Amount: 45.0}}},
	})
	require.Len(t, res.Pages, 3)
	assert.Equal(t, "3", res.Pages[0].PageNo)
	assert.Equal(t, "1", res.Pages[1].PageNo)
	assert.Equal(t, "2", res.Pages[2].PageNo)
}

func TestPipelineDeclaredTotalFlowsIntoConfidence(t *testing.T) {
	p := NewPipeline(nil, nil, nil)
	res := p.Process([]RawPage{
		{PageNo: "1", Items: []RawItemCandidate{{Name: "Livi 300mg Tab", Amount: 448.0}}},
		{PageNo: "2", DeclaredTotal: "572.03", Items: []RawItemCandidate{
			{Name: "Metnuro", Amount: 124.03},
		}},
	})
	assert.Equal(t, MatchMatched, res.Reconciliation.MatchConfidence)

	res = p.Process([]RawPage{
		{PageNo: "1", DeclaredTotal: 600.0, Items: []RawItemCandidate{
			{Name: "Livi 300mg Tab", Amount: 448.0},
		}},
	})
	assert.Equal(t, MatchMismatched, res.Reconciliation.MatchConfidence)
}

func TestPipelineMissingPageNoDefaultsToPosition(t *testing.T) {
	p := NewPipeline(nil, nil, nil)
	res := p.Process([]RawPage{
		{Items: []RawItemCandidate{{Name: "Livi 300mg Tab", Amount: 448.0}}},
		{Items: nil},
	})
	assert.Equal(t, "1", res.Pages[0].PageNo)
	assert.Equal(t, "2", res.Pages[1].PageNo)
}
