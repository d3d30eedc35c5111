package stacking

import (
	"errors"
	"testing"

	"github.com/matzehuels/stackdepth/pkg/tree"
)

func TestVerifyReportsViolations(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(s *Stacker, root, a, b, auto tree.ID)
		want    error
	}{
		{
			name: "root moved",
			corrupt: func(s *Stacker, root, _, _, _ tree.ID) {
				s.state[root].Min = -10
				s.state[root].PreMin = -10
			},
			want: ErrRoot,
		},
		{
			name: "auto widened",
			corrupt: func(s *Stacker, _, _, _, auto tree.ID) {
				s.state[auto].Max += 1
				s.state[auto].PreMax += 1
			},
			want: ErrAutoWidth,
		},
		{
			name: "siblings overlap",
			corrupt: func(s *Stacker, _, a, b, _ tree.ID) {
				s.state[a].Max = s.state[b].Min + 5
				s.state[a].PreMax = s.state[a].Max
			},
			want: ErrOverlap,
		},
		{
			name: "committed outside allocation",
			corrupt: func(s *Stacker, _, a, _, _ tree.ID) {
				s.state[a].Min -= 0.5
			},
			want: ErrContainment,
		},
		{
			name: "inverted",
			corrupt: func(s *Stacker, _, _, b, _ tree.ID) {
				s.state[b].Min, s.state[b].Max = s.state[b].Max, s.state[b].Min
			},
			want: ErrInverted,
		},
		{
			name: "out of paint order",
			corrupt: func(s *Stacker, _, a, b, _ tree.ID) {
				sa, sb := s.state[a], s.state[b]
				s.state[a].Min, s.state[a].Max = sb.Min, sb.Max
				s.state[a].PreMin, s.state[a].PreMax = sb.Min, sb.Max
				s.state[b].Min, s.state[b].Max = sa.Min, sa.Max
				s.state[b].PreMin, s.state[b].PreMax = sa.Min, sa.Max
			},
			want: ErrOrder,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tree.New()
			s := New(tr, WithZMax(100))
			tr.SetListener(s)
			root, _ := tr.Create(tree.None, 0)
			a, _ := tr.Create(root, 0)
			auto, _ := tr.Create(root, tree.Auto)
			b, _ := tr.Create(root, 2)
			s.RunPass()
			if errs := Verify(tr, s); len(errs) != 0 {
				t.Fatalf("clean tree reported %v", errs)
			}

			tt.corrupt(s, root, a, b, auto)
			errs := Verify(tr, s)
			found := false
			for _, err := range errs {
				if errors.Is(err, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("Verify() = %v, want an error wrapping %v", errs, tt.want)
			}
		})
	}
}

func TestVerifyReportsUnplacedNodes(t *testing.T) {
	tr := tree.New()
	s := New(tr)
	tr.SetListener(s)
	root, _ := tr.Create(tree.None, 0)
	_, _ = tr.Create(root, 0)

	errs := Verify(tr, s)
	if len(errs) != 1 || !errors.Is(errs[0], ErrUnplaced) {
		t.Errorf("Verify() before pass = %v, want one ErrUnplaced", errs)
	}
}
