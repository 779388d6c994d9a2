package domain

type Province struct {
	ID   int    `json:"provinceId"`
	Name string `json:"provinceName"`
}

type District struct {
	ID         int    `json:"districtId"`
	ProvinceID int    `json:"provinceId"`
	Name       string `json:"districtName"`
}

type Ward struct {
	Code       string `json:"wardCode"`
	DistrictID int    `json:"districtId"`
	Name       string `json:"wardName"`
}
