package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/nobonobo/folio-room/host/lint/literaltransform"
)

func main() {
	singlechecker.Main(literaltransform.Analyzer)
}
