package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestObjectKeyKeepsExtensionAndFolder(t *testing.T) {
	id := uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427")

	tests := []struct {
		folder, name, want string
	}{
		{"leads/abc/inspection_report", "report.pdf", "leads/abc/inspection_report/report_1b4e28ba.pdf"},
		{"leads/abc/car_pictures", "C:\\photos\\front.JPG", "leads/abc/car_pictures/front_1b4e28ba.JPG"},
		{"leads/abc/other", "../../etc/passwd", "leads/abc/other/passwd_1b4e28ba"},
		{"leads/abc/other", "", "leads/abc/other/file_1b4e28ba"},
	}
	for _, tt := range tests {
		if got := ObjectKey(tt.folder, tt.name, id); got != tt.want {
			t.Errorf("ObjectKey(%q, %q) = %q, want %q", tt.folder, tt.name, got, tt.want)
		}
	}
}

func TestValidation(t *testing.T) {
	if err := validateContentType("image/jpeg; charset=binary"); err != nil {
		t.Fatalf("expected jpeg to be allowed: %v", err)
	}
	if err := validateContentType("application/x-msdownload"); err == nil {
		t.Fatal("expected executable to be rejected")
	}
	if err := validateFileSize(0, 10); err == nil {
		t.Fatal("expected empty file to be rejected")
	}
	if err := validateFileSize(11, 10); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size error, got %v", err)
	}
	if err := validateFileSize(10, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
