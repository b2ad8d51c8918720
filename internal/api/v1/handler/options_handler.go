package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/catalog"
)

// OptionsHandler serves the style catalogs consumed by the outfit builder.
// The endpoint is public.
type OptionsHandler struct{}

func NewOptionsHandler() *OptionsHandler {
	return &OptionsHandler{}
}

func (h *OptionsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/options", h.getOptions)
}

func (h *OptionsHandler) getOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := dto.OptionsResponseDTO{
		Atmospheres:    optionDTOs(catalog.Atmospheres),
		Genders:        optionDTOs(catalog.Genders),
		SuitTypes:      optionDTOs(catalog.SuitTypes),
		LapelTypes:     optionDTOs(catalog.LapelTypes),
		PocketTypes:    optionDTOs(catalog.PocketTypes),
		ShoeTypes:      optionDTOs(catalog.ShoeTypes),
		AccessoryTypes: optionDTOs(catalog.AccessoryTypes),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func optionDTOs(opts []catalog.Option) []dto.OptionDTO {
	out := make([]dto.OptionDTO, 0, len(opts))
	for _, o := range opts {
		out = append(out, dto.OptionDTO{Value: o.Value, Label: o.Label})
	}
	return out
}
