package notes

import (
	"strings"
	"testing"
)

func TestExtractorRun(t *testing.T) {
	extractor := NewExtractor()

	htmlContent := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>App 2.0 Release Notes</title>
	</head>
	<body>
		<nav>Home | Downloads | Support</nav>
		<main>
			<article>
				<h1>What's new in 2.0</h1>
				<p>This release adds a completely reworked synchronization engine. It resolves the long-standing conflicts users experienced when editing documents on multiple machines at the same time.</p>
				<p>Performance of the startup path improved substantially, with cold starts measured at roughly half the previous duration across all supported platforms.</p>
				<p>The update also includes a number of smaller fixes to printing, clipboard handling and keyboard shortcuts reported by users since the previous release.</p>
			</article>
		</main>
		<footer>
			<p>Copyright 2024</p>
		</footer>
	</body>
	</html>
	`

	result, err := extractor.Run([]byte(htmlContent), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(result, "synchronization engine") {
		t.Errorf("Expected extracted content to contain the release notes body")
	}
	if strings.Contains(result, "Copyright 2024") {
		t.Errorf("Expected extracted content to exclude the footer")
	}
}

func TestExtractorRunEmptyData(t *testing.T) {
	extractor := NewExtractor()

	result, err := extractor.Run(nil, nil)
	if err == nil {
		t.Error("Expected error for empty data")
	}
	if result != "" {
		t.Errorf("Expected empty result for empty data, got %d bytes", len(result))
	}
}
