package domain

import (
	"encoding/json"
	"time"

	sdkmath "cosmossdk.io/math"
)

type Memorable interface {
	ToJson() string
	FromJson(jstr string) error
}

type Memo struct {
	Key  string `json:"key"`
	Memo string `json:"memo"`
}

type HarvestMemo struct {
	LastHarvestTime *time.Time   `json:"last_harvest_time"`
	LastCollected   sdkmath.Uint `json:"last_collected"`
	Harvests        int          `json:"harvests"`
}

func (obj *HarvestMemo) ToJson() string {
	jstr, err := json.Marshal(obj)
	if err != nil {
		return err.Error()
	}
	return string(jstr)
}

func (obj *HarvestMemo) FromJson(jstr string) error {
	err := json.Unmarshal([]byte(jstr), obj)
	return err
}
