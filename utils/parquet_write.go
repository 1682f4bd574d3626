package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// 默认写入配置: zstd 压缩
func defaultWriterOptions() []parquet.WriterOption {
	return []parquet.WriterOption{
		parquet.Compression(&parquet.Zstd),
		parquet.WriteBufferSize(50 * 1024 * 1024),
		parquet.PageBufferSize(64 * 1024),
	}
}

// pendingFile 先写入同目录临时文件, Close 成功后再重命名覆盖目标文件
type pendingFile struct {
	file   *os.File
	target string
}

func createPending(filename string) (*pendingFile, error) {
	f, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &pendingFile{file: f, target: filename}, nil
}

func (p *pendingFile) commit() error {
	if err := p.file.Close(); err != nil {
		os.Remove(p.file.Name())
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(p.file.Name(), p.target); err != nil {
		os.Remove(p.file.Name())
		return fmt.Errorf("failed to replace %s: %w", p.target, err)
	}
	return nil
}

func (p *pendingFile) abort() {
	p.file.Close()
	os.Remove(p.file.Name())
}

type ParquetWriter[T any] struct {
	pending *pendingFile
	writer  *parquet.GenericWriter[T]
}

// NewParquetWriter 初始化一个新的写入器
// filename: 文件路径, 在 Close 之前不可见
// options: Parquet 配置（如压缩、Buffer大小）
func NewParquetWriter[T any](filename string, options ...parquet.WriterOption) (*ParquetWriter[T], error) {
	p, err := createPending(filename)
	if err != nil {
		return nil, err
	}

	finalOpts := append(defaultWriterOptions(), options...)
	return &ParquetWriter[T]{
		pending: p,
		writer:  parquet.NewGenericWriter[T](p.file, finalOpts...),
	}, nil
}

// Write 写入一批数据
func (p *ParquetWriter[T]) Write(data []T) error {
	_, err := p.writer.Write(data)
	return err
}

// Close 写入 Footer 并替换目标文件
func (p *ParquetWriter[T]) Close() error {
	if err := p.writer.Close(); err != nil {
		p.pending.abort()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return p.pending.commit()
}

// Abort 丢弃未完成的文件
func (p *ParquetWriter[T]) Abort() {
	p.pending.abort()
}

// RowWriter writes rows against a schema built at runtime.
type RowWriter struct {
	pending *pendingFile
	writer  *parquet.Writer
	schema  *parquet.Schema
	buf     []parquet.Row
}

func NewRowWriter(filename string, schema *parquet.Schema, options ...parquet.WriterOption) (*RowWriter, error) {
	p, err := createPending(filename)
	if err != nil {
		return nil, err
	}

	finalOpts := append(defaultWriterOptions(), schema)
	finalOpts = append(finalOpts, options...)
	return &RowWriter{
		pending: p,
		writer:  parquet.NewWriter(p.file, finalOpts...),
		schema:  schema,
	}, nil
}

func (w *RowWriter) Schema() *parquet.Schema { return w.schema }

// Write buffers one row and flushes every 4096 rows.
func (w *RowWriter) Write(row parquet.Row) error {
	w.buf = append(w.buf, row)
	if len(w.buf) >= 4096 {
		return w.flush()
	}
	return nil
}

func (w *RowWriter) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	if _, err := w.writer.WriteRows(w.buf); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	w.buf = w.buf[:0]
	return nil
}

func (w *RowWriter) Close() error {
	if err := w.flush(); err != nil {
		w.pending.abort()
		return err
	}
	if err := w.writer.Close(); err != nil {
		w.pending.abort()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return w.pending.commit()
}

func (w *RowWriter) Abort() {
	w.pending.abort()
}
