package domain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referencePipe() PipeSegment {
	return PipeSegment{ID: "1", Length: 100, Diameter: 0.2, Roughness: 0.015}
}

func TestComputeSegment_HazenWilliamsReference(t *testing.T) {
	seg, err := ComputeSegment(referencePipe(), HazenWilliams)
	require.NoError(t, err)
	require.NotNil(t, seg.FlowRate)
	require.NotNil(t, seg.HeadLoss)

	area := math.Pi * 0.1 * 0.1
	q := 2.0 * area
	want := 10.67 * 100 * math.Pow(q, 1.85) / (math.Pow(0.015, 1.85) * math.Pow(0.2, 4.87))

	assert.InDelta(t, 0.0314, area, 0.0001)
	assert.InDelta(t, 0.0628, *seg.FlowRate, 0.0001)
	assert.InEpsilon(t, q, *seg.FlowRate, 1e-9)
	assert.InEpsilon(t, want, *seg.HeadLoss, 1e-9)
	assert.Equal(t, "1", seg.ID)
}

func TestComputeSegment_DarcyWeisbachSelector(t *testing.T) {
	seg, err := ComputeSegment(referencePipe(), DarcyWeisbach)
	require.NoError(t, err)

	want := 0.08 * 0.015 * 4 * 100 / (2 * 9.81 * 0.2)
	assert.InEpsilon(t, want, *seg.HeadLoss, 1e-9)
}

func TestComputeSegment_DoesNotMutateInput(t *testing.T) {
	in := referencePipe()
	_, err := ComputeSegment(in, HazenWilliams)
	require.NoError(t, err)
	assert.Nil(t, in.FlowRate)
	assert.Nil(t, in.HeadLoss)
}

func TestComputeSegment_HeadLossMonotonicity(t *testing.T) {
	for _, method := range []HeadLossMethod{HazenWilliams, DarcyWeisbach} {
		t.Run(string(method)+" increasing in length", func(t *testing.T) {
			prev := -1.0
			for _, length := range []float64{1, 10, 50, 100, 500, 5000} {
				seg := referencePipe()
				seg.Length = length
				out, err := ComputeSegment(seg, method)
				require.NoError(t, err)
				assert.Greater(t, *out.HeadLoss, prev)
				prev = *out.HeadLoss
			}
		})

		t.Run(string(method)+" decreasing in diameter", func(t *testing.T) {
			prev := math.Inf(1)
			for _, d := range []float64{0.05, 0.1, 0.2, 0.4, 0.8, 1.5} {
				seg := referencePipe()
				seg.Diameter = d
				out, err := ComputeSegment(seg, method)
				require.NoError(t, err)
				assert.Less(t, *out.HeadLoss, prev)
				prev = *out.HeadLoss
			}
		})
	}
}

func TestComputeSegment_InvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipeSegment)
		want   error
	}{
		{"zero diameter", func(s *PipeSegment) { s.Diameter = 0 }, ErrInvalidPipeParameter},
		{"negative length", func(s *PipeSegment) { s.Length = -5 }, ErrInvalidPipeParameter},
		{"zero length", func(s *PipeSegment) { s.Length = 0 }, ErrInvalidPipeParameter},
		{"zero roughness", func(s *PipeSegment) { s.Roughness = 0 }, ErrInvalidPipeParameter},
		{"NaN roughness", func(s *PipeSegment) { s.Roughness = math.NaN() }, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := referencePipe()
			tt.mutate(&seg)
			out, err := ComputeSegment(seg, HazenWilliams)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, PipeSegment{}, out)
		})
	}
}

func TestComputeSegment_UnknownMethod(t *testing.T) {
	_, err := ComputeSegment(referencePipe(), HeadLossMethod("manning"))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestComputeNetwork_PreservesOrder(t *testing.T) {
	segments := []PipeSegment{
		{ID: "3", Length: 250, Diameter: 0.3, Roughness: 130},
		{ID: "1", Length: 100, Diameter: 0.2, Roughness: 120},
		{ID: "7", Length: 40, Diameter: 0.1, Roughness: 100},
	}
	res, err := ComputeNetwork(segments, HazenWilliams)
	require.NoError(t, err)

	assert.Equal(t, HazenWilliams, res.Method)
	ids := make([]string, len(res.Segments))
	for i, s := range res.Segments {
		ids[i] = s.ID
		single, err := ComputeSegment(segments[i], HazenWilliams)
		require.NoError(t, err)
		assert.Equal(t, *single.HeadLoss, *s.HeadLoss, "segment %s is evaluated in isolation", s.ID)
	}
	if diff := cmp.Diff([]string{"3", "1", "7"}, ids); diff != "" {
		t.Fatalf("segment order changed (-want +got):\n%s", diff)
	}
	assert.Positive(t, res.TotalHeadLoss())
}

func TestComputeNetwork_NoPartialResult(t *testing.T) {
	segments := []PipeSegment{
		referencePipe(),
		{ID: "2", Length: 100, Diameter: 0, Roughness: 0.015},
	}
	res, err := ComputeNetwork(segments, DarcyWeisbach)
	require.ErrorIs(t, err, ErrInvalidPipeParameter)
	assert.Contains(t, err.Error(), "pipe 2")
	assert.Empty(t, res.Segments)
}

func TestComputeNetwork_DuplicateIDs(t *testing.T) {
	_, err := ComputeNetwork([]PipeSegment{referencePipe(), referencePipe()}, HazenWilliams)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestParseHeadLossMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    HeadLossMethod
		wantErr bool
	}{
		{"hazen-williams", HazenWilliams, false},
		{"Hazen_Williams", HazenWilliams, false},
		{"darcy weisbach", DarcyWeisbach, false},
		{"DARCY-WEISBACH", DarcyWeisbach, false},
		{"colebrook", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHeadLossMethod(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPipeList_AddRemoveUpdate(t *testing.T) {
	list := NewPipeList()
	require.Len(t, list, 1)
	assert.Equal(t, PipeSegment{ID: "1", Length: 100, Diameter: 0.2, Roughness: 0.015}, list[0])

	list = list.Add().Add()
	assert.Equal(t, []string{"1", "2", "3"}, pipeIDs(list))

	list, err := list.Remove("2")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, pipeIDs(list), "remaining ids are not renumbered")

	list = list.Add()
	assert.Equal(t, []string{"1", "3", "4"}, pipeIDs(list), "new ids never collide with existing ones")

	_, err = list.Remove("42")
	require.ErrorIs(t, err, ErrInvalidInput)

	computed, err := ComputeSegment(list[0], HazenWilliams)
	require.NoError(t, err)
	list[0] = computed

	updated, err := list.Update("1", "diameter", 0.3)
	require.NoError(t, err)
	assert.Equal(t, 0.3, updated[0].Diameter)
	assert.Nil(t, updated[0].HeadLoss, "update clears computed values")
	assert.NotNil(t, list[0].HeadLoss, "update returns a new list")

	_, err = list.Update("1", "colour", 1)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = list.Update("99", "length", 1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPipeList_WithIDs(t *testing.T) {
	list := PipeList{{ID: "5"}, {}, {ID: "2"}, {}}.WithIDs()
	assert.Equal(t, []string{"5", "6", "2", "7"}, pipeIDs(list))
}

func pipeIDs(l PipeList) []string {
	ids := make([]string, len(l))
	for i, s := range l {
		ids[i] = s.ID
	}
	return ids
}

func TestComputeNetwork_NormalizesMethod(t *testing.T) {
	res, err := ComputeNetwork(NewPipeList(), HeadLossMethod("Darcy_Weisbach"))
	require.NoError(t, err)
	assert.Equal(t, DarcyWeisbach, res.Method)
	require.Len(t, res.Segments, 1)
	assert.NotNil(t, res.Segments[0].HeadLoss)
}
