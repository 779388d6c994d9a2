package domain

type Address struct {
	ID            string `json:"id"`
	ReceiverName  string `json:"receiverName"`
	ReceiverPhone string `json:"receiverPhone"`
	Street        string `json:"street"`
	ProvinceID    int    `json:"provinceId"`
	ProvinceName  string `json:"provinceName"`
	DistrictID    int    `json:"districtId"`
	DistrictName  string `json:"districtName"`
	WardCode      string `json:"wardCode"`
	WardName      string `json:"wardName"`
	FullAddress   string `json:"fullAddress"`
	IsDefault     bool   `json:"isDefault"`
}

type AddressInput struct {
	ReceiverName  string `json:"receiverName"`
	ReceiverPhone string `json:"receiverPhone"`
	Street        string `json:"street"`
	ProvinceID    int    `json:"provinceId"`
	DistrictID    int    `json:"districtId"`
	WardCode      string `json:"wardCode"`
	MakeDefault   bool   `json:"makeDefault"`
}

type AddressUpdate struct {
	ID string `json:"id"`
	AddressInput
}
