package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Interface strings.
const (
	msgLoading        = "Cargando..."
	msgLanding        = "Escribe una consulta o elige un filtro para comenzar."
	msgNoResults      = "No se encontraron resultados"
	msgSuggestion     = "Intenta limpiar los filtros o modificar la consulta."
	msgError          = "Ha ocurrido un error"
	msgUnavailable    = "El índice de búsqueda no está disponible en este momento."
	msgClearFilters   = "Limpiar filtros"
	titleRepository   = "Repositorio"
	titleLevel        = "Nivel de descripción"
	titleDigital      = "Copia digital"
	titleDates        = "Fechas"
	titleDateRange    = "Rango de fechas"
	approximatePrefix = "Más de "
)

// approximateFrom is the smallest total reported as a lower bound.
const approximateFrom = 1000

var locale = language.Spanish

// FormatCount renders n with Spanish digit grouping.
func FormatCount(n int) string {
	return message.NewPrinter(locale).Sprintf("%d", n)
}

func resultsText(total int, approximate bool) string {
	if approximate && total >= approximateFrom {
		return approximatePrefix + FormatCount(total) + " resultados"
	}
	return FormatCount(total) + " resultados"
}

func promptText(estimate int) string {
	return message.NewPrinter(locale).Sprintf(
		"Esta búsqueda recorrería unos %d documentos. Añade un término o un filtro, o muestra todos los resultados.",
		estimate,
	)
}
