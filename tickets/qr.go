package tickets

import (
	"encoding/json"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrSize = 512

// RenderQR encodes the signed payload as a PNG QR code. Highest recovery
// keeps printed and photographed codes readable with ~30% damage.
func RenderQR(sp SignedPayload) ([]byte, error) {
	body, err := json.Marshal(sp)
	if err != nil {
		return nil, fmt.Errorf("tickets.RenderQR: %w", err)
	}
	png, err := qrcode.Encode(string(body), qrcode.Highest, qrSize)
	if err != nil {
		return nil, fmt.Errorf("tickets.RenderQR: %w", err)
	}
	return png, nil
}

func qrPath(eventID, wallet, ticketID string) string {
	return fmt.Sprintf("tickets/%s/%s/%s.png", eventID, wallet, ticketID)
}
