package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"

	"github.com/Kargones/backupchain/internal/entity/backupchain"
	"github.com/Kargones/backupchain/internal/pkg/apperrors"
	"github.com/Kargones/backupchain/internal/pkg/logging"
)

// Поддерживаемые кодировки файла истории.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1251 = "windows-1251"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileSource читает историю из файла выгрузки.
//
// Формат определяется расширением (.yaml, .yml, .json). Корень — либо
// документ Snapshot (backups, continuationPoints, lastRestores), либо
// просто список записей бэкапов. Выгрузки с Windows-серверов бывают
// в windows-1251, для них задаётся Encoding.
type FileSource struct {
	Path     string
	Encoding string
	logger   logging.Logger
}

// NewFileSource создаёт FileSource.
func NewFileSource(path, encoding string, logger logging.Logger) *FileSource {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FileSource{Path: path, Encoding: encoding, logger: logger}
}

// Load читает и декодирует файл, затем применяет Query.Since и Query.Continue.
func (s *FileSource) Load(_ context.Context, q Query) (*Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrHistoryLoad,
			fmt.Sprintf("не удалось прочитать файл истории %s", s.Path), err)
	}

	snap, err := Decode(data, filepath.Ext(s.Path), s.Encoding)
	if err != nil {
		return nil, err
	}

	if !q.Since.IsZero() {
		kept := snap.Records[:0]
		for _, r := range snap.Records {
			if !r.Start.Before(q.Since) {
				kept = append(kept, r)
			}
		}
		snap.Records = kept
	}
	if !q.IncludeCopyOnly {
		kept := snap.Records[:0]
		for _, r := range snap.Records {
			if !r.IsCopyOnly {
				kept = append(kept, r)
			}
		}
		snap.Records = kept
	}
	if !q.Continue {
		snap.ContinuationPoints = nil
		snap.LastRestoreTypes = nil
	}

	s.logger.Debug("история бэкапов загружена из файла",
		"path", s.Path,
		"records", len(snap.Records),
		"continuation_points", len(snap.ContinuationPoints),
	)
	return snap, nil
}

// Decode разбирает содержимое файла истории.
// ext — расширение файла с точкой; encoding — кодировка (пусто — utf-8).
func Decode(data []byte, ext, encoding string) (*Snapshot, error) {
	text, err := toUTF8(data, encoding)
	if err != nil {
		return nil, err
	}

	var snap *Snapshot
	switch strings.ToLower(ext) {
	case ".json":
		snap, err = decodeJSON(text)
	case ".yaml", ".yml":
		snap, err = decodeYAML(text)
	default:
		return nil, apperrors.NewAppError(apperrors.ErrHistoryDecode,
			fmt.Sprintf("неподдерживаемый формат файла истории %q", ext), nil)
	}
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrHistoryDecode,
			"не удалось разобрать файл истории", err)
	}
	return snap, nil
}

func toUTF8(data []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingUTF8, "utf8":
		return bytes.TrimPrefix(data, utf8BOM), nil
	case EncodingWindows1251, "cp1251":
		out, err := charmap.Windows1251.NewDecoder().Bytes(data)
		if err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrHistoryDecode,
				"не удалось перекодировать файл истории из windows-1251", err)
		}
		return out, nil
	default:
		return nil, apperrors.NewAppError(apperrors.ErrHistoryDecode,
			fmt.Sprintf("неподдерживаемая кодировка %q", encoding), nil)
	}
}

func decodeJSON(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []backupchain.BackupRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return &Snapshot{Records: records}, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func decodeYAML(data []byte) (*Snapshot, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return &Snapshot{}, nil
	}
	doc := root.Content[0]
	if doc.Kind == yaml.SequenceNode {
		var records []backupchain.BackupRecord
		if err := doc.Decode(&records); err != nil {
			return nil, err
		}
		return &Snapshot{Records: records}, nil
	}
	var snap Snapshot
	if err := doc.Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
