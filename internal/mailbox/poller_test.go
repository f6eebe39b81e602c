package mailbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"fatura.pdf", "fatura.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\x\fatura.pdf`, "fatura.pdf"},
		{"fa:tu*ra?.pdf", "fa_tu_ra_.pdf"},
		{"", "anexo"},
		{"..", "anexo"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeFilename(tc.in), "input %q", tc.in)
	}
}
