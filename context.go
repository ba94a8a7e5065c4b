package main

import (
	"audio-tools/config"

	"gorm.io/gorm"
)

type Context struct {
	Config        *config.Config
	DB            *gorm.DB
	Prober        Prober
	Fingerprinter Fingerprinter
}
