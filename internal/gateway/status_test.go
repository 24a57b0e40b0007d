package gateway

import "testing"

func TestSerialConnectedValue(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{
			name:  "single port",
			paths: []string{"COM3"},
			want:  "CONNECTED (COM3)",
		},
		{
			name:  "two ports",
			paths: []string{"COM3", "COM5"},
			want:  "CONNECTED (COM3, COM5)",
		},
		{
			name:  "joined list at the 20 char boundary keeps the list",
			paths: []string{"/dev/tty1", "/dev/tty2"},
			want:  "CONNECTED (/dev/tty1, /dev/tty2)",
		},
		{
			name:  "joined list over 20 chars collapses to a count",
			paths: []string{"/dev/ttyUSB0", "/dev/ttyUSB1"},
			want:  "CONNECTED (2 Devices)",
		},
		{
			name:  "many short ports collapse to a count",
			paths: []string{"COM10", "COM11", "COM12", "COM13"},
			want:  "CONNECTED (4 Devices)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serialConnectedValue(tt.paths); got != tt.want {
				t.Errorf("serialConnectedValue(%v) = %q, want %q", tt.paths, got, tt.want)
			}
		})
	}
}

func TestAPIErrorValue(t *testing.T) {
	if got := apiErrorValue(500); got != "ERR 500" {
		t.Errorf("apiErrorValue(500) = %q, want ERR 500", got)
	}
	if got := apiErrorValue(404); got != "ERR 404" {
		t.Errorf("apiErrorValue(404) = %q, want ERR 404", got)
	}
}
