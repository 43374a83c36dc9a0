package worker

import (
	"cruce-web/internal/service"

	"github.com/hibiken/asynq"
)

func RegisterHandlers(mux *asynq.ServeMux, exportJobs *service.ExportJobService) {
	exportHandler := NewExportTaskHandler(exportJobs)
	mux.HandleFunc(service.TypeCruceExport, exportHandler.Handle)
}
