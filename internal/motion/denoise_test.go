package motion

import "testing"

func TestDenoiserFloors(t *testing.T) {
	d := Denoiser{Floor: 0.15, GravityFloor: 0.40, GravityAxis: AxisZ}

	tests := []struct {
		name string
		in   Sample
		want Sample
	}{
		{
			name: "sub-floor lateral noise zeroed",
			in:   Sample{T: 1, Ax: 0.10, Ay: -0.14, Az: 9.8},
			want: Sample{T: 1, Ax: 0, Ay: 0, Az: 9.8},
		},
		{
			name: "real lateral motion kept",
			in:   Sample{T: 1, Ax: 0.20, Ay: -1.5, Az: 9.8},
			want: Sample{T: 1, Ax: 0.20, Ay: -1.5, Az: 9.8},
		},
		{
			name: "gravity axis uses larger floor",
			in:   Sample{T: 1, Ax: 0, Ay: 0, Az: 0.30},
			want: Sample{T: 1, Ax: 0, Ay: 0, Az: 0},
		},
		{
			name: "gravity axis above its floor kept",
			in:   Sample{T: 1, Ax: 0, Ay: 0, Az: -0.50},
			want: Sample{T: 1, Ax: 0, Ay: 0, Az: -0.50},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := d.Apply(tc.in); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestDenoiserGravityAxisSelection(t *testing.T) {
	d := Denoiser{Floor: 0.15, GravityFloor: 0.40, GravityAxis: AxisY}

	got := d.Apply(Sample{Ax: 0.30, Ay: 0.30, Az: 0.30})
	// Y gets the larger floor, X and Z the smaller one.
	if got.Ay != 0 {
		t.Fatalf("gravity axis not zeroed: %+v", got)
	}
	if got.Ax != 0.30 || got.Az != 0.30 {
		t.Fatalf("lateral axes clipped with wrong floor: %+v", got)
	}
}
