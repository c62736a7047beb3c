package model

import "github.com/Carmen-Shannon/oxy-core/common"

func headlessPixel() common.TextureStagingData {
	return common.SolidTexture(10, 20, 30, 255)
}
