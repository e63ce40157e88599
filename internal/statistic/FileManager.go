package statistic

import (
	"os"

	json "github.com/goccy/go-json"

	"trwlexporter/internal/models"
	"trwlexporter/internal/services"
	"trwlexporter/internal/statistic/interfaces"
)

type FileManager struct {
	service    services.ExporterServiceInterface
	compressor interfaces.CompressorInterface
}

func NewFileManager(compressor interfaces.CompressorInterface, service services.ExporterServiceInterface) *FileManager {
	return &FileManager{
		compressor: compressor,
		service:    service,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	storage := f.service.GetSnapshot()

	jsonData, err := json.Marshal(storage)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return err
	}

	var storage models.Storage
	if err := json.Unmarshal(decompressedData, &storage); err != nil {
		return err
	}
	f.service.PutSnapshot(&storage)
	return nil
}

func (f *FileManager) Close() {
	f.compressor.Close()
}
