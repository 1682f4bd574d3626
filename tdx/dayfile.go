package tdx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jing2uo/pricepanel/model"
)

const recordSize = 32

// dayRecord 通达信 .day 文件单条记录, 价格单位为分
type dayRecord struct {
	Date   uint32
	Open   uint32
	High   uint32
	Low    uint32
	Close  uint32
	Amount float32
	Volume uint32
	_      uint32
}

// ReadDayFile decodes a TDX .day file into bars. The format carries no
// adjusted close.
func ReadDayFile(path string) ([]model.Bar, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access file %s: %w", path, err)
	}
	if fileInfo.Size() == 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DAY file %s: %w", path, err)
	}
	defer f.Close()

	bars, err := DecodeDay(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// DecodeDay reads consecutive 32-byte little-endian records.
func DecodeDay(r io.Reader) ([]model.Bar, error) {
	// 每次读取 32 条记录
	buffer := make([]byte, 32*recordSize)
	var bars []model.Bar
	offset := 0

	for {
		n, err := io.ReadFull(r, buffer)
		if err == io.EOF {
			break
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("failed to read: %w", err)
		}
		if n%recordSize != 0 {
			return nil, fmt.Errorf("invalid file format: data length %d is not a multiple of %d", offset+n, recordSize)
		}

		for i := 0; i < n/recordSize; i++ {
			record, perr := parseDayRecord(buffer[i*recordSize : (i+1)*recordSize])
			if perr != nil {
				return nil, fmt.Errorf("failed to parse record at offset %d: %w", offset+i*recordSize, perr)
			}
			date, perr := parseDate(record.Date)
			if perr != nil {
				return nil, fmt.Errorf("record at offset %d: %w", offset+i*recordSize, perr)
			}
			bars = append(bars, model.Bar{
				Date:   date,
				Open:   model.Float(float64(record.Open) / 100),
				High:   model.Float(float64(record.High) / 100),
				Low:    model.Float(float64(record.Low) / 100),
				Close:  model.Float(float64(record.Close) / 100),
				Volume: model.Int(int64(record.Volume)),
			})
		}
		offset += n

		if err == io.ErrUnexpectedEOF {
			break
		}
	}

	return bars, nil
}

func parseDayRecord(data []byte) (dayRecord, error) {
	if len(data) != recordSize {
		return dayRecord{}, fmt.Errorf("invalid record length: expected %d bytes, got %d", recordSize, len(data))
	}

	var record dayRecord
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &record); err != nil {
		return dayRecord{}, fmt.Errorf("failed to parse binary record: %w", err)
	}
	return record, nil
}

func parseDate(date uint32) (time.Time, error) {
	d := int(date)
	year := d / 10000
	month := (d % 10000) / 100
	day := d % 100

	if year < 1900 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid date value: %08d", date)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}
