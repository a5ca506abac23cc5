package domain

var Tables = []interface{}{
	&WaOperationLog{},
}
