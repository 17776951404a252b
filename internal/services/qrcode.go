package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const DefaultQRCodeSize = 512

var qrForeground = color.RGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}

// QRCodeRenderer builds the public patient link and renders it as a PNG.
type QRCodeRenderer struct {
	baseURL string
	size    int
}

func NewQRCodeRenderer(appURL string, size int) *QRCodeRenderer {
	if size <= 0 {
		size = DefaultQRCodeSize
	}
	return &QRCodeRenderer{
		baseURL: strings.TrimRight(strings.TrimSpace(appURL), "/"),
		size:    size,
	}
}

func (renderer *QRCodeRenderer) PatientURL(qrCodeID string) string {
	return renderer.baseURL + "/patient/" + url.PathEscape(qrCodeID)
}

func (renderer *QRCodeRenderer) PNG(content string) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr code content is empty")
	}
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	code.ForegroundColor = qrForeground
	code.BackgroundColor = color.White

	png, err := code.PNG(renderer.size)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}

func (renderer *QRCodeRenderer) DataURL(content string) (string, error) {
	png, err := renderer.PNG(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// PatientQRCode returns the public link for a patient and its PNG data URL.
func (renderer *QRCodeRenderer) PatientQRCode(qrCodeID string) (string, string, error) {
	link := renderer.PatientURL(qrCodeID)
	dataURL, err := renderer.DataURL(link)
	if err != nil {
		return "", "", err
	}
	return link, dataURL, nil
}
