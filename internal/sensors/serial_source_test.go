package sensors

import (
	"testing"

	"github.com/relabs-tech/jump_tracker/internal/motion"
)

func TestParseSampleLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want motion.Sample
		ok   bool
	}{
		{"plain", "1.250,0.10,-0.20,9.81", motion.Sample{T: 1.25, Ax: 0.1, Ay: -0.2, Az: 9.81}, true},
		{"padded fields", " 2.0 , 1 , 2 , 3 ", motion.Sample{T: 2, Ax: 1, Ay: 2, Az: 3}, true},
		{"empty", "", motion.Sample{}, false},
		{"boot banner", "IMU module v2.1 ready", motion.Sample{}, false},
		{"too few fields", "1.0,2.0,3.0", motion.Sample{}, false},
		{"too many fields", "1,2,3,4,5", motion.Sample{}, false},
		{"garbage field", "1.0,2.0,NaN?,4.0", motion.Sample{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseSampleLine(tc.line)
			if ok != tc.ok {
				t.Fatalf("ok: got %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
