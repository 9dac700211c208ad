package services

import (
	"encoding/json"

	"desa-portal/internal/storage"
)

func newTestStorage(dir string) (*storage.LocalStorageClient, error) {
	return storage.NewLocalStorageClient(dir, "http://files.test", "secret")
}

func rawForm(js string) map[string]json.RawMessage {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(js), &raw); err != nil {
		panic(err)
	}
	return raw
}
