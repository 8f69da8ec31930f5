package stores

import (
	"collab-server/core"
	"collab-server/stores/memory"
	"os"

	"github.com/sirupsen/logrus"
)

// GetStore selects the room store backend from the STORAGE_TYPE
// environment variable. Room state is process-lifetime by design, so the
// in-memory backend is the only one registered; unknown values fall back
// to it.
func GetStore() core.RoomStore {
	storageType := os.Getenv("STORAGE_TYPE")

	switch storageType {
	case "", "memory":
	default:
		logrus.WithField("storageType", storageType).Warn("Unknown storage type, using in-memory")
	}

	logrus.WithFields(logrus.Fields{
		"storageType": "in-memory",
	}).Info("Use storage")
	return memory.NewRoomStore()
}
