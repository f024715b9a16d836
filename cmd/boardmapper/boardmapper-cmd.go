package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"snakesboard"

	"go.viam.com/rdk/rimage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <board.jpg> [mapping.json]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  Writes the detected mapping JSON and a <board>_mapped.jpg overlay\n")
		os.Exit(1)
	}

	inputFile := os.Args[1]

	mappingFile := "mapping.json"
	if len(os.Args) >= 3 {
		mappingFile = os.Args[2]
	}

	result := snakesboard.AutoDetectFromFile(inputFile)
	if !result.Success {
		fmt.Fprintf(os.Stderr, "Detection failed: %s\n", result.Message)
		os.Exit(1)
	}

	fmt.Printf("%s\n", result.Message)
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	for base, top := range result.Mapping.Ladders {
		fmt.Printf("  ladder %3d -> %3d\n", base, top)
	}
	for head, tail := range result.Mapping.Snakes {
		fmt.Printf("  snake  %3d -> %3d\n", head, tail)
	}

	data, err := snakesboard.EncodeMapping(result.Mapping)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding mapping: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(mappingFile, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing mapping: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved mapping to %s\n", mappingFile)

	// overlay image for visual inspection
	input, err := rimage.ReadImageFromFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading image: %v\n", err)
		os.Exit(1)
	}

	overlay, err := snakesboard.MappingDebugImage(input, result.Mapping)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error drawing overlay: %v\n", err)
		os.Exit(1)
	}

	ext := filepath.Ext(inputFile)
	outputFile := strings.TrimSuffix(inputFile, ext) + "_mapped" + ext
	if err := rimage.WriteImageToFile(outputFile, overlay); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing overlay image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved overlay image to %s\n", outputFile)
}
