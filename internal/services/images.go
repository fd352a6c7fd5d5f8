package services

import (
	"fmt"
	"net/url"
	"strings"
)

// Placeholder points at the frontend's generated placeholder image.
func Placeholder(width, height int, text string) string {
	p := fmt.Sprintf("/placeholder.svg?height=%d&width=%d", height, width)
	if text != "" {
		p += "&text=" + url.QueryEscape(text)
	}
	return p
}

// ImageWithFallback keeps absolute and placeholder urls and fills in blanks.
func ImageWithFallback(path string, width, height int) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return Placeholder(width, height, "")
	}
	return path
}

func firstImage(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}
