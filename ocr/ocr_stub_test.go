//go:build !ocr

package ocr

import (
	"errors"
	"testing"
)

func TestNewReturnsError(t *testing.T) {
	client, err := New()
	if err == nil {
		t.Error("Expected error from New() when OCR is disabled")
	}
	if !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("Expected ErrOCRNotEnabled, got: %v", err)
	}
	if client != nil {
		t.Error("Expected nil client when OCR is disabled")
	}
}

func TestCloseOnNilClient(t *testing.T) {
	var client *Client
	err := client.Close()
	if err != nil {
		t.Errorf("Close on nil client should not error: %v", err)
	}
}

func TestFactoryReturnsError(t *testing.T) {
	engine, err := NewFactory("eng+fra", PSM_SINGLE_BLOCK)()
	if !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("Expected ErrOCRNotEnabled, got: %v", err)
	}
	if engine != nil {
		t.Error("Expected nil engine when OCR is disabled")
	}
}

func TestStubRecognitionReturnsError(t *testing.T) {
	var client Client
	if _, err := client.Text(nil); !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("Text: expected ErrOCRNotEnabled, got: %v", err)
	}
	if _, err := client.Words(nil); !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("Words: expected ErrOCRNotEnabled, got: %v", err)
	}
	if err := client.SetPageSegMode(PSM_SINGLE_BLOCK); !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("SetPageSegMode: expected ErrOCRNotEnabled, got: %v", err)
	}
}
