package models

import "desa-portal/internal/utils"

func intPtr(v int) *int {
	return &v
}

// DefaultLetterTemplates returns the letters every village starts with
func DefaultLetterTemplates() []LetterTemplate {
	return []LetterTemplate{
		{
			Code:        "SKTM",
			Name:        "Surat Keterangan Tidak Mampu",
			Description: "Keterangan bagi warga yang tergolong keluarga tidak mampu",
			Template: `SURAT KETERANGAN TIDAK MAMPU
Nomor: {{nomorSurat}}

Yang bertanda tangan di bawah ini, {{jabatanPenandatangan}}, menerangkan bahwa:

Nama: {{nama}}
NIK: {{nik}}
Tempat/Tanggal Lahir: {{tempatLahir}}, {{tanggalLahir}}
Jenis Kelamin: {{jenisKelamin}}
Agama: {{agama}}
Pekerjaan: {{pekerjaan}}
Alamat: {{alamat}} RT {{rt}} RW {{rw}}

Orang tersebut benar warga desa kami dan tergolong keluarga tidak mampu dengan penghasilan rata-rata Rp {{penghasilan}} per bulan dan tanggungan {{jumlahTanggungan}} orang.

Surat keterangan ini dibuat untuk keperluan {{tujuan}}.

{{tanggalSurat}}
{{jabatanPenandatangan}}

{{namaPenandatangan}}`,
			Fields: []utils.FieldDefinition{
				{Key: "penghasilan", Label: "Penghasilan per Bulan", DataType: utils.DataTypeNumber, InputType: utils.InputTypeNumber, Required: true, Order: 1},
				{Key: "jumlahTanggungan", Label: "Jumlah Tanggungan", DataType: utils.DataTypeNumber, InputType: utils.InputTypeNumber, Required: true, Order: 2},
			},
			IsActive: true,
		},
		{
			Code:        "SKD",
			Name:        "Surat Keterangan Domisili",
			Description: "Keterangan tempat tinggal warga",
			Template: `SURAT KETERANGAN DOMISILI
Nomor: {{nomorSurat}}

Yang bertanda tangan di bawah ini menerangkan bahwa:

Nama: {{nama}}
NIK: {{nik}}
Tempat/Tanggal Lahir: {{tempatLahir}}, {{tanggalLahir}}
Jenis Kelamin: {{jenisKelamin}}
Pekerjaan: {{pekerjaan}}

Benar berdomisili di {{alamat}} RT {{rt}} RW {{rw}} sejak {{tanggalMulaiDomisili}}.

Surat keterangan ini dibuat untuk keperluan {{tujuan}}.

{{tanggalSurat}}
{{jabatanPenandatangan}}

{{namaPenandatangan}}`,
			Fields: []utils.FieldDefinition{
				{Key: "tanggalMulaiDomisili", Label: "Tanggal Mulai Domisili", DataType: utils.DataTypeDate, InputType: utils.InputTypeDate, Order: 1},
			},
			IsActive: true,
		},
		{
			Code:        "SKU",
			Name:        "Surat Keterangan Usaha",
			Description: "Keterangan kepemilikan usaha warga",
			Template: `SURAT KETERANGAN USAHA
Nomor: {{nomorSurat}}

Yang bertanda tangan di bawah ini menerangkan bahwa:

Nama: {{nama}}
NIK: {{nik}}
Alamat: {{alamat}} RT {{rt}} RW {{rw}}

Benar memiliki usaha {{namaUsaha}} bergerak di bidang {{jenisUsaha}} yang berlokasi di {{alamatUsaha}}.

Surat keterangan ini dibuat untuk keperluan {{tujuan}}.

{{tanggalSurat}}
{{jabatanPenandatangan}}

{{namaPenandatangan}}`,
			Fields: []utils.FieldDefinition{
				{Key: "namaUsaha", Label: "Nama Usaha", DataType: utils.DataTypeText, InputType: utils.InputTypeText, Required: true, Validation: &utils.FieldValidation{MaxLength: intPtr(150)}, Order: 1},
				{Key: "jenisUsaha", Label: "Jenis Usaha", DataType: utils.DataTypeText, InputType: utils.InputTypeText, Required: true, Order: 2},
				{Key: "alamatUsaha", Label: "Alamat Usaha", DataType: utils.DataTypeText, InputType: utils.InputTypeTextarea, Order: 3},
			},
			IsActive: true,
		},
	}
}
