package docs

//go:generate swag init --v3.1 --outputTypes go --dir ../../../../ --generalInfo cmd/hloc-find/main.go --output .
