package compressor

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// NativeCompressor produces the same .tar.gz layout as TarCompressor without
// an external binary.
type NativeCompressor struct {
	level int
}

func NewNative() *NativeCompressor {
	return &NativeCompressor{level: gzip.DefaultCompression}
}

func (n *NativeCompressor) Compress(ctx context.Context, workDir, input, output string) error {
	outputPath := output
	if !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(workDir, output)
	}

	destFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create dest file: %w", err)
	}
	defer destFile.Close()

	gzipWriter, err := gzip.NewWriterLevel(destFile, n.level)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	tarWriter := tar.NewWriter(gzipWriter)

	root := filepath.Join(workDir, input)
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return addEntry(tarWriter, workDir, path, info)
	})
	if walkErr != nil {
		return fmt.Errorf("failed to archive %s: %w", input, walkErr)
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize tar: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize gzip: %w", err)
	}
	return destFile.Close()
}

func addEntry(tw *tar.Writer, workDir, path string, info os.FileInfo) error {
	rel, err := filepath.Rel(workDir, path)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)
	if info.IsDir() {
		header.Name += "/"
	}

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(tw, file)
	return err
}
