package viewport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmap/internal/domain"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestScreenToGraph(t *testing.T) {
	v := New(Size{Width: 800, Height: 600})
	v.Set(domain.Transform{K: 2, X: 100, Y: 50})

	got := v.ScreenToGraph(t0, domain.Point{X: 300, Y: 250})
	assert.Equal(t, domain.Point{X: 100, Y: 100}, got)
}

func TestSetRejectsZeroScale(t *testing.T) {
	v := New(Size{Width: 800, Height: 600})
	v.Set(domain.Transform{X: 5})
	assert.Equal(t, domain.Transform{K: 1, X: 5}, v.Transform(t0))
}

func TestReset(t *testing.T) {
	v := New(Size{Width: 800, Height: 600})
	start := domain.Transform{K: 3, X: 200, Y: -100}
	v.Set(start)

	v.Reset(t0, 750*time.Millisecond)

	assert.True(t, v.Animating(t0.Add(10*time.Millisecond)))

	mid := v.Transform(t0.Add(375 * time.Millisecond))
	assert.InDelta(t, 2, mid.K, 1e-9)
	assert.InDelta(t, 100, mid.X, 1e-9)

	early := v.Transform(t0.Add(100 * time.Millisecond))
	late := v.Transform(t0.Add(650 * time.Millisecond))
	assert.Greater(t, early.K, 2.0)
	assert.Less(t, late.K, 2.0)

	assert.Equal(t, domain.Identity, v.Transform(t0.Add(750*time.Millisecond)))
	assert.False(t, v.Animating(t0.Add(time.Second)))
}

func TestSetCancelsAnimation(t *testing.T) {
	v := New(Size{Width: 800, Height: 600})
	v.Set(domain.Transform{K: 2})
	v.Reset(t0, time.Second)

	v.Set(domain.Transform{K: 4})

	assert.False(t, v.Animating(t0.Add(10*time.Millisecond)))
	assert.Equal(t, 4.0, v.Transform(t0.Add(500*time.Millisecond)).K)
}

func TestAnimateToWithoutDuration(t *testing.T) {
	v := New(Size{Width: 800, Height: 600})
	target := domain.Transform{K: 1.5, X: 10, Y: 10}
	v.AnimateTo(t0, target, 0)
	assert.Equal(t, target, v.Transform(t0))
}

func TestResize(t *testing.T) {
	v := New(Size{Width: 800, Height: 600})
	c := v.Resize(Size{Width: 1000, Height: 400})
	assert.Equal(t, domain.Point{X: 500, Y: 200}, c)
	assert.Equal(t, Size{Width: 1000, Height: 400}, v.Size())
}

func TestFit(t *testing.T) {
	v := New(Size{Width: 800, Height: 600})

	tests := []struct {
		name   string
		nodes  []domain.Node
		wantOK bool
		wantK  float64
	}{
		{
			name:   "no placed nodes",
			nodes:  []domain.Node{{ID: "a"}},
			wantOK: false,
			wantK:  1,
		},
		{
			name: "box is scaled to the tighter axis",
			nodes: []domain.Node{
				{ID: "a", Position: domain.NewPoint(0, 0)},
				{ID: "b", Position: domain.NewPoint(390, 100)},
			},
			wantOK: true,
			wantK:  2,
		},
		{
			name:   "single node keeps scale",
			nodes:  []domain.Node{{ID: "root", Position: domain.NewPoint(400, 300)}},
			wantOK: true,
			wantK:  1,
		},
		{
			name: "stacked nodes keep scale",
			nodes: []domain.Node{
				{ID: "a", Position: domain.NewPoint(5, 5)},
				{ID: "b", Position: domain.NewPoint(5, 5)},
			},
			wantOK: true,
			wantK:  1,
		},
		{
			name: "vertical line scales on height only",
			nodes: []domain.Node{
				{ID: "a", Position: domain.NewPoint(0, 0)},
				{ID: "b", Position: domain.NewPoint(0, 290)},
			},
			wantOK: true,
			wantK:  2,
		},
		{
			name: "tiny cluster is capped",
			nodes: []domain.Node{
				{ID: "a", Position: domain.NewPoint(0, 0)},
				{ID: "b", Position: domain.NewPoint(2, 1)},
			},
			wantOK: true,
			wantK:  MaxFitScale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := v.Fit(domain.Snapshot{Nodes: tt.nodes}, 10)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.wantK, tr.K, 1e-9)
		})
	}

	t.Run("bounding box is centered", func(t *testing.T) {
		tr, _ := v.Fit(domain.Snapshot{Nodes: []domain.Node{
			{ID: "a", Position: domain.NewPoint(0, 0)},
			{ID: "b", Position: domain.NewPoint(390, 100)},
		}}, 10)
		mid := tr.Apply(domain.Point{X: 195, Y: 50})
		assert.InDelta(t, 400, mid.X, 1e-9)
		assert.InDelta(t, 300, mid.Y, 1e-9)
	})

	t.Run("single node lands on screen center", func(t *testing.T) {
		fit := New(Size{Width: 800, Height: 600})
		tr, ok := fit.Fit(domain.Snapshot{Nodes: []domain.Node{
			{ID: "root", Position: domain.NewPoint(400, 300)},
		}}, 40)
		require.True(t, ok)
		assert.Equal(t, domain.Transform{K: 1, X: 0, Y: 0}, tr)

		tr, _ = fit.Fit(domain.Snapshot{Nodes: []domain.Node{
			{ID: "root", Position: domain.NewPoint(100, 50)},
		}}, 40)
		on := tr.Apply(domain.Point{X: 100, Y: 50})
		assert.InDelta(t, 400, on.X, 1e-9)
		assert.InDelta(t, 300, on.Y, 1e-9)
	})
}
