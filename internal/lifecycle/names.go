package lifecycle

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

var now = time.Now

// UniqueName returns prefix_<unix millis>_<5 random base36 chars>.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, now().UnixMilli(), randomSuffix(5))
}

// ShortName returns prefix followed by the last four digits of the unix millis clock.
// The site limits profile names in the UI, so UI tests use this form.
func ShortName(prefix string) string {
	return fmt.Sprintf("%s%04d", prefix, now().UnixMilli()%10000)
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rand.IntN(len(base36))]
	}
	return string(b)
}
