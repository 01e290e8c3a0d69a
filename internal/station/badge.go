package station

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain/guest"
	"gatepass/pkg/logger"
)

var badgeTemplate = template.Must(template.New("badge").Parse(`GATEPASS BADGE
Name: {{.Name}}
Party size: {{.PartySize}}
Ticket: {{.Ticket}}
`))

// TemplateBadgeRenderer renders a plain-text badge. The physical layout is
// the printer driver's problem; stations with label printers swap in their
// own BadgeRenderer.
type TemplateBadgeRenderer struct{}

func NewTemplateBadgeRenderer() *TemplateBadgeRenderer {
	return &TemplateBadgeRenderer{}
}

func (r *TemplateBadgeRenderer) Render(_ context.Context, g guest.Guest) ([]byte, error) {
	var buf bytes.Buffer
	err := badgeTemplate.Execute(&buf, map[string]any{
		"Name":      g.Name,
		"PartySize": g.AttendeeCount(),
		"Ticket":    g.ID.String(),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SpoolPrinter drops rendered badges into a spool directory watched by the
// OS print service. BADGE_SPOOL_DIR overrides the default.
type SpoolPrinter struct {
	dir string
	log *logger.Logger
}

func NewSpoolPrinter(log *logger.Logger) *SpoolPrinter {
	dir := os.Getenv("BADGE_SPOOL_DIR")
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "gatepass-badges")
	}
	return &SpoolPrinter{dir: dir, log: log}
}

func (p *SpoolPrinter) Print(_ context.Context, badge []byte) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("badge-%d-%s.txt", time.Now().UnixMilli(), uuid.NewString()[:8])
	path := filepath.Join(p.dir, name)
	if err := os.WriteFile(path, badge, 0o644); err != nil {
		return err
	}
	p.log.Infof("badge spooled to %s", path)
	return nil
}
