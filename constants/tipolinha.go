package constants

// TipoLinha classifies a cost line for the ledger aggregation.
type TipoLinha string

const (
	TipoSubempreitadas TipoLinha = "subempreitadas"
	TipoMateriais      TipoLinha = "materiais"
	TipoMaoObra        TipoLinha = "mao_obra"
	TipoEquipamentos   TipoLinha = "equipamentos_maquinaria"
	TipoCustosSede     TipoLinha = "custos_sede"
)

// TiposCusto lists the valid classifications; anything else falls back to materiais.
var TiposCusto = []TipoLinha{
	TipoSubempreitadas,
	TipoMateriais,
	TipoMaoObra,
	TipoEquipamentos,
	TipoCustosSede,
}

// IsTipoCusto reports whether t is one of the known classifications.
func IsTipoCusto(t TipoLinha) bool {
	for _, v := range TiposCusto {
		if v == t {
			return true
		}
	}
	return false
}
